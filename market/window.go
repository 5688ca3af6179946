package market

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// ErrInvalidWindow is returned when a date window cannot be built.
var ErrInvalidWindow = errors.New("invalid date window")

// Window is an inclusive range of calendar days expressed in milliseconds.
// StartMs is 00:00:00 UTC of the first day and EndMs is 23:59:59 UTC of the
// last one.
type Window struct {
	Start   time.Time
	End     time.Time
	StartMs int64
	EndMs   int64
}

// ParseWindow builds a Window from two YYYY-MM-DD dates.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.ParseInLocation(dayLayout, strings.TrimSpace(start), time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad start date %q: %v", ErrInvalidWindow, start, err)
	}
	e, err := time.ParseInLocation(dayLayout, strings.TrimSpace(end), time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad end date %q: %v", ErrInvalidWindow, end, err)
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidWindow, end, start)
	}

	last := e.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return Window{
		Start:   s,
		End:     e,
		StartMs: s.UnixMilli(),
		EndMs:   last.UnixMilli(),
	}, nil
}

// Contains reports whether ts (ms) falls inside the window.
func (w Window) Contains(ts int64) bool {
	return ts >= w.StartMs && ts <= w.EndMs
}

func (w Window) String() string {
	return w.Start.Format(dayLayout) + ".." + w.End.Format(dayLayout)
}
