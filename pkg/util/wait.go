package util

import (
	"fmt"
	"math"
)

// EstimateWaitMinutes returns ceil(position / ratePerMinute).
func EstimateWaitMinutes(position int64, ratePerMinute int) int64 {
	if position <= 0 || ratePerMinute <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(position) / float64(ratePerMinute)))
}

// FormatWait renders a wait in minutes for humans.
func FormatWait(minutes int64) string {
	switch {
	case minutes <= 0:
		return "Less than 1 minute"
	case minutes == 1:
		return "1 minute"
	case minutes < 60:
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return fmt.Sprintf("%.1f hours", float64(minutes)/60)
	}
}
