package core

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrModelCallLimit matches every *ModelCallLimitError via errors.Is.
var ErrModelCallLimit = errors.New("model call limit reached")

// ModelCallLimitError reports a run that asked for more model round trips
// than its budget allows.
type ModelCallLimitError struct {
	Max int
}

func (e *ModelCallLimitError) Error() string {
	return fmt.Sprintf("exceeded max model calls: %d", e.Max)
}

// Is makes errors.Is(err, ErrModelCallLimit) succeed.
func (e *ModelCallLimitError) Is(target error) bool { return target == ErrModelCallLimit }

// ModelLimiter is the per-run model call budget. The zero budget is
// unlimited.
type ModelLimiter struct {
	max   int
	calls atomic.Int64
}

// NewModelLimiter creates a limiter allowing max calls.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: max}
}

// Increment spends one call. Once the budget is spent it returns a
// *ModelCallLimitError; the call is still counted.
func (ml *ModelLimiter) Increment() error {
	n := ml.calls.Add(1)
	if ml.max > 0 && n > int64(ml.max) {
		return &ModelCallLimitError{Max: ml.max}
	}

	return nil
}

// Count returns the number of calls spent, including a rejected one.
func (ml *ModelLimiter) Count() int { return int(ml.calls.Load()) }

// Remaining returns the calls left, or -1 when unlimited.
func (ml *ModelLimiter) Remaining() int {
	if ml.max == 0 {
		return -1
	}

	return max(ml.max-ml.Count(), 0)
}
