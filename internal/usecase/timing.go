package usecase

import (
	"math"
	"time"
)

// millis converts d to milliseconds rounded to the given number of decimals.
func millis(d time.Duration, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(float64(d)/float64(time.Millisecond)*scale) / scale
}
