package market

import "time"

// Gap is a run of missing candles inside a downloaded sequence.
type Gap struct {
	Start   int64 // open time (ms) of the first missing candle
	Missing int   // number of missing candles
}

// GapStats summarises the gaps found in a candle sequence.
type GapStats struct {
	Expected   int
	Present    int
	Missing    int
	GapCount   int
	LongestGap int
	Gaps       []Gap
}

// FindGaps walks an ascending candle sequence and reports every place where
// the distance between neighbours is larger than step. Only the span between
// the first and last candle is examined.
func FindGaps(candles []Candle, step time.Duration) GapStats {
	var s GapStats

	n := len(candles)
	s.Present = n
	s.Expected = n
	if n < 2 || step <= 0 {
		return s
	}

	stepMs := step.Milliseconds()
	s.Expected = int((candles[n-1].Timestamp-candles[0].Timestamp)/stepMs) + 1

	for i := 1; i < n; i++ {
		delta := candles[i].Timestamp - candles[i-1].Timestamp
		if delta <= stepMs {
			continue
		}

		missing := int(delta/stepMs) - 1
		if missing <= 0 {
			continue
		}
		s.Gaps = append(s.Gaps, Gap{
			Start:   candles[i-1].Timestamp + stepMs,
			Missing: missing,
		})
		s.GapCount++
		s.Missing += missing
		if missing > s.LongestGap {
			s.LongestGap = missing
		}
	}

	return s
}
