package savings

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

// ErrDivisionByZero is returned by averages and targets computed over a zero
// week count, e.g. the weekly average of a goal that has not started yet.
var ErrDivisionByZero = errors.New("savings: division by zero week count")

// InvalidRangeError reports a goal whose end date precedes its start date.
type InvalidRangeError struct {
	Start civil.Date
	End   civil.Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("savings: invalid goal range: end date %s is before start date %s", e.End, e.Start)
}

// ValidateRange rejects ranges with end < start.
func ValidateRange(start, end civil.Date) error {
	if end.Before(start) {
		return &InvalidRangeError{Start: start, End: end}
	}
	return nil
}
