package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}

func TestCircuitBreaker_DrawdownHalt(t *testing.T) {
	cb := NewCircuitBreaker(15, 0, 5, 100000)

	d1 := date(t, "2024-04-01")
	cb.Update(d1, 100000)
	assert.False(t, cb.Halted())

	// 16% drawdown against a 15% threshold trips the halt.
	d2 := d1.AddDate(0, 0, 1)
	cb.Update(d2, 84000)
	require.True(t, cb.Halted())
	assert.Equal(t, d2.AddDate(0, 0, 5), cb.ResumeDate())

	// Still halted the day before the resume date, even on recovery.
	cb.Update(d2.AddDate(0, 0, 4), 99000)
	assert.True(t, cb.Halted())

	// Resume date reached: halt clears and the loss streak resets.
	cb.Update(d2.AddDate(0, 0, 5), 99000)
	assert.False(t, cb.Halted())
	assert.Equal(t, 0, cb.ConsecutiveLosses())
}

func TestCircuitBreaker_LossStreakHalt(t *testing.T) {
	cb := NewCircuitBreaker(0, 3, 2, 100000)
	d := date(t, "2024-04-01")

	cb.RecordTrade(-100)
	cb.RecordTrade(-100)
	cb.Update(d, 99800)
	assert.False(t, cb.Halted(), "two losses stay under the threshold of three")

	cb.RecordTrade(-100)
	cb.Update(d.AddDate(0, 0, 1), 99700)
	assert.True(t, cb.Halted())
}

func TestCircuitBreaker_WinResetsStreak(t *testing.T) {
	cb := NewCircuitBreaker(0, 2, 2, 100000)
	cb.RecordTrade(-100)
	cb.RecordTrade(500)
	cb.RecordTrade(-100)
	cb.Update(date(t, "2024-04-01"), 100300)
	assert.False(t, cb.Halted())
	assert.Equal(t, 1, cb.ConsecutiveLosses())
}

func TestCircuitBreaker_DisabledThresholds(t *testing.T) {
	cb := NewCircuitBreaker(0, 0, 5, 100000)
	for i := 0; i < 10; i++ {
		cb.RecordTrade(-100)
	}
	cb.Update(date(t, "2024-04-01"), 1000)
	assert.False(t, cb.Halted(), "zero thresholds disable the breaker")
}

func TestCircuitBreaker_PeakRatchets(t *testing.T) {
	cb := NewCircuitBreaker(50, 0, 1, 100000)
	d := date(t, "2024-04-01")
	cb.Update(d, 120000)
	assert.Equal(t, 120000.0, cb.Peak())
	cb.Update(d.AddDate(0, 0, 1), 110000)
	assert.Equal(t, 120000.0, cb.Peak(), "peak never moves down")
}

func TestCooldownTracker(t *testing.T) {
	c := NewCooldownTracker(5)
	d := date(t, "2024-04-01")

	assert.False(t, c.Active("ACME", d))

	c.Trigger("ACME", d)
	assert.True(t, c.Active("ACME", d.AddDate(0, 0, 1)))
	assert.True(t, c.Active("ACME", d.AddDate(0, 0, 4)))
	assert.False(t, c.Active("ACME", d.AddDate(0, 0, 5)), "release date itself is eligible")
	assert.False(t, c.Active("ACME", d.AddDate(0, 0, 6)))
}

func TestCooldownTracker_Disabled(t *testing.T) {
	c := NewCooldownTracker(0)
	d := date(t, "2024-04-01")
	c.Trigger("ACME", d)
	assert.False(t, c.Active("ACME", d.AddDate(0, 0, 1)))
}
