// Package engine runs the day-by-day portfolio simulation: it drives one
// strategy over a universe of indicator frames, manages capital and open
// positions through the ledger, applies the universal exit rules and risk
// controls, and produces the trade list and daily equity curve.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/portfolio-backtester/internal/market"
	"github.com/your-org/portfolio-backtester/internal/position"
	"github.com/your-org/portfolio-backtester/internal/regime"
	"github.com/your-org/portfolio-backtester/internal/risk"
	"github.com/your-org/portfolio-backtester/internal/strategy"
	"github.com/your-org/portfolio-backtester/pkg/logger"
)

// ErrNoData is returned when no symbol in the universe yields a usable
// indicator frame. Per-symbol failures are skipped; only total absence of
// data is fatal.
var ErrNoData = errors.New("no usable price data in universe")

// Exit reasons applied by the engine, in evaluation priority order.
// Strategy-specific exits carry their own reason strings.
const (
	ReasonStopLoss     = "Stop Loss"
	ReasonTakeProfit   = "Take Profit"
	ReasonTrailingStop = "Trailing Stop"
	ReasonMaxHold      = "Max Hold Period"
	ReasonEndOfRun     = "End of backtest"
)

// Config is the immutable per-run configuration. A zero percentage disables
// the corresponding rule.
type Config struct {
	InitialCapital       float64
	MaxPositions         int
	SlotFraction         float64 // fraction of initial/max_positions per slot; 0 means 1.0
	TxnCostPct           float64
	StopLossPct          float64
	TakeProfitPct        float64
	TrailingStopPct      float64
	MaxHoldDays          int
	CooldownDays         int
	MinStrength          float64
	MaxDrawdownPct       float64
	MaxConsecutiveLosses int
	BreakerCooldownDays  int
	UseRegimeFilter      bool
	RegimeFastPeriod     int
	RegimeSlowPeriod     int
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", c.InitialCapital)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max positions must be positive, got %d", c.MaxPositions)
	}
	if c.SlotFraction < 0 || c.SlotFraction > 1 {
		return fmt.Errorf("slot fraction must be in [0,1], got %.2f", c.SlotFraction)
	}
	if c.UseRegimeFilter && (c.RegimeFastPeriod <= 0 || c.RegimeSlowPeriod <= c.RegimeFastPeriod) {
		return fmt.Errorf("regime periods invalid: fast=%d slow=%d", c.RegimeFastPeriod, c.RegimeSlowPeriod)
	}
	return nil
}

// EquityPoint is one day of the portfolio value series.
type EquityPoint struct {
	Date  time.Time
	Value float64
}

// RegimeStats counts how the regime filter classified the run's dates and
// how many entry scans it suppressed.
type RegimeStats struct {
	BullDays        int
	BearDays        int
	SidewaysDays    int
	SuppressedScans int
}

// Result is the output of one completed run.
type Result struct {
	RunID          uuid.UUID
	Strategy       string
	InitialCapital float64
	FinalCapital   float64
	Trades         []position.Trade
	Equity         []EquityPoint
	Regime         RegimeStats
	HaltedDays     int
}

// Engine drives one strategy over a universe. An Engine value is safe to
// reuse for sequential runs; concurrent runs each get their own Engine.
type Engine struct {
	cfg   Config
	strat strategy.Strategy
}

// New validates the configuration and builds an engine.
func New(cfg Config, strat strategy.Strategy) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, fmt.Errorf("engine requires a strategy")
	}
	if cfg.SlotFraction == 0 {
		cfg.SlotFraction = 1
	}
	return &Engine{cfg: cfg, strat: strat}, nil
}

type candidate struct {
	symbol   string
	strength float64
	tag      string
	price    float64
}

// Run executes the simulation over the sorted union of all symbols' dates.
// The benchmark series is only consulted when the regime filter is enabled.
// Cancellation is honored between simulated days.
func (e *Engine) Run(ctx context.Context, universe map[string]*market.Series, benchmark *market.Series) (*Result, error) {
	cfg := e.cfg

	frames := make(map[string]*market.Frame, len(universe))
	for sym, series := range universe {
		frame, err := e.strat.Prepare(series)
		if err != nil {
			logger.Warnf("skipping %s: %v", sym, err)
			continue
		}
		frames[sym] = frame
	}
	if len(frames) == 0 {
		return nil, ErrNoData
	}

	symbols := make([]string, 0, len(frames))
	for sym := range frames {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var filter *regime.Filter
	if cfg.UseRegimeFilter {
		if benchmark == nil {
			return nil, fmt.Errorf("regime filter enabled but no benchmark series supplied")
		}
		var err error
		filter, err = regime.NewFilter(benchmark, cfg.RegimeFastPeriod, cfg.RegimeSlowPeriod)
		if err != nil {
			return nil, err
		}
	}

	dates := unionDates(frames)
	result := &Result{
		RunID:          uuid.New(),
		Strategy:       e.strat.Name(),
		InitialCapital: cfg.InitialCapital,
	}

	cash := cfg.InitialCapital
	perSlotCap := cfg.InitialCapital / float64(cfg.MaxPositions) * cfg.SlotFraction
	ledger := position.NewLedger()
	breaker := risk.NewCircuitBreaker(cfg.MaxDrawdownPct, cfg.MaxConsecutiveLosses, cfg.BreakerCooldownDays, cfg.InitialCapital)
	cooldown := risk.NewCooldownTracker(cfg.CooldownDays)
	lastClose := make(map[string]float64, len(frames))

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Exit evaluation runs before anything else so risk is managed even
		// while the breaker halts entries.
		for _, sym := range ledger.Symbols() {
			frame := frames[sym]
			i, ok := frame.Index(date)
			if !ok {
				continue // symbol has no bar today
			}
			bar := frame.At(i)
			pos, ok := ledger.Get(sym)
			if !ok {
				continue
			}
			pos.UpdateHighest(bar.Close)

			exitPrice, reason, hit := e.checkExit(frame, i, bar, pos, date)
			if !hit {
				continue
			}
			trade, proceeds, err := ledger.Close(sym, date, exitPrice, reason, cfg.TxnCostPct)
			if err != nil {
				return nil, err
			}
			cash += proceeds
			result.Trades = append(result.Trades, trade)
			breaker.RecordTrade(trade.PnL)
			if trade.PnL < 0 {
				cooldown.Trigger(sym, date)
			}
			logger.Debugf("%s closed %s: %s", date.Format(time.DateOnly), sym, trade)
		}

		for sym, frame := range frames {
			if i, ok := frame.Index(date); ok {
				lastClose[sym] = frame.At(i).Close
			}
		}

		breaker.Update(date, cash+markToMarket(ledger, lastClose))
		if breaker.Halted() {
			result.HaltedDays++
		}

		allowEntries := !breaker.Halted()
		if filter != nil {
			switch filter.Classify(date) {
			case regime.Bull:
				result.Regime.BullDays++
			case regime.Bear:
				result.Regime.BearDays++
				if allowEntries {
					result.Regime.SuppressedScans++
				}
				allowEntries = false
			default:
				result.Regime.SidewaysDays++
			}
		}

		if allowEntries {
			if slots := cfg.MaxPositions - ledger.Count(); slots > 0 {
				for _, cand := range e.scanEntries(frames, symbols, ledger, cooldown, date, slots) {
					qty := position.Quantity(cash, perSlotCap, cand.price, cfg.TxnCostPct)
					if qty == 0 {
						continue // normal no-trade outcome
					}
					cost := position.EntryCost(qty, cand.price, cfg.TxnCostPct)
					cash -= cost
					if err := ledger.Open(&position.Position{
						Symbol:          cand.symbol,
						EntryDate:       date,
						EntryPrice:      cand.price,
						Quantity:        qty,
						CapitalInvested: cost,
						HighestPrice:    cand.price,
						Strength:        cand.strength,
						Direction:       position.Long,
						Tag:             cand.tag,
					}); err != nil {
						return nil, err
					}
					logger.Debugf("%s opened %s x%d @ %.2f (strength %.4f)",
						date.Format(time.DateOnly), cand.symbol, qty, cand.price, cand.strength)
				}
			}
		}

		result.Equity = append(result.Equity, EquityPoint{
			Date:  date,
			Value: cash + markToMarket(ledger, lastClose),
		})
	}

	// Force-liquidate whatever is still open at each symbol's last close.
	endDate := dates[len(dates)-1]
	for _, sym := range ledger.Symbols() {
		trade, proceeds, err := ledger.Close(sym, endDate, lastClose[sym], ReasonEndOfRun, cfg.TxnCostPct)
		if err != nil {
			return nil, err
		}
		cash += proceeds
		result.Trades = append(result.Trades, trade)
	}

	result.FinalCapital = cash
	return result, nil
}

// checkExit evaluates the universal exit rules in fixed priority, then the
// strategy's own exit. The stop loss executes at its exact trigger price
// even when the close gapped through it; other exits execute at the close.
func (e *Engine) checkExit(frame *market.Frame, i int, bar market.Bar, pos *position.Position, date time.Time) (price float64, reason string, hit bool) {
	cfg := e.cfg

	if cfg.StopLossPct > 0 {
		stop := pos.EntryPrice * (1 - cfg.StopLossPct/100)
		if bar.Close <= stop {
			return stop, ReasonStopLoss, true
		}
	}
	if cfg.TakeProfitPct > 0 && bar.Close >= pos.EntryPrice*(1+cfg.TakeProfitPct/100) {
		return bar.Close, ReasonTakeProfit, true
	}
	if cfg.TrailingStopPct > 0 && bar.Close <= pos.HighestPrice*(1-cfg.TrailingStopPct/100) {
		return bar.Close, ReasonTrailingStop, true
	}
	if reason, ok := e.strat.Exit(frame, i, pos); ok {
		return bar.Close, reason, true
	}
	if cfg.MaxHoldDays > 0 && pos.DaysHeld(date) >= cfg.MaxHoldDays {
		return bar.Close, ReasonMaxHold, true
	}
	return 0, "", false
}

// scanEntries evaluates every eligible symbol for an entry signal and
// returns the top candidates by strength. Symbols are scanned in sorted
// order and the sort is stable, so equal strengths break ties
// alphabetically.
func (e *Engine) scanEntries(frames map[string]*market.Frame, symbols []string, ledger *position.Ledger, cooldown *risk.CooldownTracker, date time.Time, slots int) []candidate {
	var candidates []candidate
	for _, sym := range symbols {
		if ledger.Has(sym) || cooldown.Active(sym, date) {
			continue
		}
		frame := frames[sym]
		i, ok := frame.Index(date)
		if !ok {
			continue
		}
		sig, ok := e.strat.Entry(frame, i)
		if !ok {
			continue
		}
		if e.cfg.MinStrength > 0 && sig.Strength < e.cfg.MinStrength {
			continue
		}
		candidates = append(candidates, candidate{
			symbol:   sym,
			strength: sig.Strength,
			tag:      sig.Tag,
			price:    frame.At(i).Close,
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].strength > candidates[b].strength
	})
	if len(candidates) > slots {
		candidates = candidates[:slots]
	}
	return candidates
}

func markToMarket(ledger *position.Ledger, lastClose map[string]float64) float64 {
	total := 0.0
	for _, sym := range ledger.Symbols() {
		pos, _ := ledger.Get(sym)
		total += pos.MarkValue(lastClose[sym])
	}
	return total
}

func unionDates(frames map[string]*market.Frame) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, frame := range frames {
		for _, d := range frame.Dates() {
			seen[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
