// Package clock provides the time source used by all business rules, so that
// date arithmetic is deterministic in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by the wall clock (UTC).
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock that always reports the same instant. Tests advance it
// explicitly via Set.
type Fixed struct {
	t time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.t = t
}

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}
