package clock

import "time"

// Clock позволяет подменять текущее время в тестах.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock всегда возвращает заданное время.
type FixedClock struct {
	CurrentTime time.Time
}

var _ Clock = (*FixedClock)(nil)

func NewFixed(t time.Time) *FixedClock {
	return &FixedClock{CurrentTime: t}
}

func (c *FixedClock) Now() time.Time {
	return c.CurrentTime
}

func (c *FixedClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
