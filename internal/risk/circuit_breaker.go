// Package risk implements the portfolio-level risk controls: the circuit
// breaker that halts new entries after a drawdown or loss streak, and the
// per-symbol cooldown applied after losing trades.
package risk

import "time"

// CircuitBreaker tracks peak capital and consecutive losses and halts new
// entries for a cooldown window once either threshold is breached. Exits are
// never blocked; only entry scanning consults Halted.
type CircuitBreaker struct {
	maxDrawdownPct       float64 // 0 disables the drawdown check
	maxConsecutiveLosses int     // 0 disables the loss-streak check
	cooldownDays         int

	peak              float64
	consecutiveLosses int
	halted            bool
	resumeDate        time.Time
}

// NewCircuitBreaker creates a breaker seeded with the run's initial capital
// as the first peak.
func NewCircuitBreaker(maxDrawdownPct float64, maxConsecutiveLosses, cooldownDays int, initialCapital float64) *CircuitBreaker {
	return &CircuitBreaker{
		maxDrawdownPct:       maxDrawdownPct,
		maxConsecutiveLosses: maxConsecutiveLosses,
		cooldownDays:         cooldownDays,
		peak:                 initialCapital,
	}
}

// RecordTrade feeds a realized trade PnL into the loss-streak counter.
func (cb *CircuitBreaker) RecordTrade(pnl float64) {
	if pnl < 0 {
		cb.consecutiveLosses++
	} else {
		cb.consecutiveLosses = 0
	}
}

// Update advances the breaker for the given date and portfolio value. While
// halted it clears the halt once the resume date is reached, resetting the
// loss streak. While active it trips the halt when the drawdown from peak or
// the loss streak breaches its threshold.
func (cb *CircuitBreaker) Update(date time.Time, portfolioValue float64) {
	if cb.halted {
		if !date.Before(cb.resumeDate) {
			cb.halted = false
			cb.consecutiveLosses = 0
		}
		return
	}

	if portfolioValue > cb.peak {
		cb.peak = portfolioValue
	}

	breach := false
	if cb.maxDrawdownPct > 0 && cb.peak > 0 {
		drawdown := (cb.peak - portfolioValue) / cb.peak * 100
		if drawdown >= cb.maxDrawdownPct {
			breach = true
		}
	}
	if cb.maxConsecutiveLosses > 0 && cb.consecutiveLosses >= cb.maxConsecutiveLosses {
		breach = true
	}

	if breach {
		cb.halted = true
		cb.resumeDate = date.AddDate(0, 0, cb.cooldownDays)
	}
}

// Halted reports whether entry scanning is suspended.
func (cb *CircuitBreaker) Halted() bool { return cb.halted }

// ResumeDate returns the date entries resume; zero when not halted.
func (cb *CircuitBreaker) ResumeDate() time.Time { return cb.resumeDate }

// ConsecutiveLosses returns the current loss streak.
func (cb *CircuitBreaker) ConsecutiveLosses() int { return cb.consecutiveLosses }

// Peak returns the highest portfolio value observed.
func (cb *CircuitBreaker) Peak() float64 { return cb.peak }
