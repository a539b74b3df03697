package risk

import "time"

// CooldownTracker suppresses re-entry into symbols that just closed at a
// loss. A symbol becomes eligible again once the current date reaches its
// release date.
type CooldownTracker struct {
	days    int
	release map[string]time.Time
}

// NewCooldownTracker creates a tracker with the given cooldown length in
// calendar days. Zero days disables the cooldown.
func NewCooldownTracker(days int) *CooldownTracker {
	return &CooldownTracker{days: days, release: make(map[string]time.Time)}
}

// Trigger starts (or restarts) the cooldown for a symbol.
func (c *CooldownTracker) Trigger(symbol string, date time.Time) {
	if c.days <= 0 {
		return
	}
	c.release[symbol] = date.AddDate(0, 0, c.days)
}

// Active reports whether the symbol is still cooling down at the given date.
func (c *CooldownTracker) Active(symbol string, date time.Time) bool {
	release, ok := c.release[symbol]
	if !ok {
		return false
	}
	if date.Before(release) {
		return true
	}
	delete(c.release, symbol)
	return false
}
