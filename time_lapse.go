package modsim

import (
	"fmt"
	"time"
)

// TimeLapse is the consumable slice of simulated time [start, end) offered
// to listeners during one tick. Listeners may consume part or all of it to
// model partial progress within the tick.
//
// Thread-safety: NOT thread-safe. A lapse is handed to listeners one after
// the other on the goroutine that drives the clock.
type TimeLapse struct {
	unit  time.Duration
	start int64
	end   int64
	cur   int64
}

// NewTimeLapse creates a lapse covering [start, end).
func NewTimeLapse(unit time.Duration, start, end int64) *TimeLapse {
	return &TimeLapse{unit: unit, start: start, end: end, cur: start}
}

// Consume uses the given amount of time. Consuming more than is left fails
// with ErrTimeLapseExhausted and consumes nothing.
func (tl *TimeLapse) Consume(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeConsumption, amount)
	}
	if amount > tl.TimeLeft() {
		return fmt.Errorf("%w: requested %d, left %d", ErrTimeLapseExhausted, amount, tl.TimeLeft())
	}
	tl.cur += amount
	return nil
}

// ConsumeAll uses all remaining time.
func (tl *TimeLapse) ConsumeAll() {
	tl.cur = tl.end
}

// Time returns the current time within the lapse.
func (tl *TimeLapse) Time() int64 {
	return tl.cur
}

// TimeLeft returns the amount of time that can still be consumed.
func (tl *TimeLapse) TimeLeft() int64 {
	return tl.end - tl.cur
}

// TimeConsumed returns the amount of time used so far.
func (tl *TimeLapse) TimeConsumed() int64 {
	return tl.cur - tl.start
}

// HasTimeLeft reports whether any time can still be consumed.
func (tl *TimeLapse) HasTimeLeft() bool {
	return tl.cur < tl.end
}

// IsIn reports whether t lies within [start, end).
func (tl *TimeLapse) IsIn(t int64) bool {
	return t >= tl.start && t < tl.end
}

// StartTime returns the inclusive start of the lapse.
func (tl *TimeLapse) StartTime() int64 {
	return tl.start
}

// EndTime returns the exclusive end of the lapse.
func (tl *TimeLapse) EndTime() int64 {
	return tl.end
}

// Length returns end - start.
func (tl *TimeLapse) Length() int64 {
	return tl.end - tl.start
}

// Unit returns the duration of one time unit.
func (tl *TimeLapse) Unit() time.Duration {
	return tl.unit
}

func (tl *TimeLapse) reset() {
	tl.cur = tl.start
}

func (tl *TimeLapse) String() string {
	return fmt.Sprintf("[%d,%d) at %d", tl.start, tl.end, tl.cur)
}
