package market

import (
	"strconv"
	"time"
)

// IntervalDuration converts a unified interval token ("15m", "4h", "1d",
// "1w") into a fixed duration. Month based tokens ("1M") have no fixed
// length and report false, as does anything unparseable.
func IntervalDuration(interval string) (time.Duration, bool) {
	if len(interval) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, false
	}

	d := time.Duration(n)
	switch interval[len(interval)-1] {
	case 's':
		return d * time.Second, true
	case 'm':
		return d * time.Minute, true
	case 'h':
		return d * time.Hour, true
	case 'd':
		return d * 24 * time.Hour, true
	case 'w':
		return d * 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
