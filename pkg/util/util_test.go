package util

import (
	"testing"
	"time"
)

func TestEstimateWaitMinutes(t *testing.T) {
	cases := []struct {
		pos  int64
		rate int
		want int64
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{45, 20, 3},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := EstimateWaitMinutes(c.pos, c.rate); got != c.want {
			t.Errorf("EstimateWaitMinutes(%d, %d) = %d, want %d", c.pos, c.rate, got, c.want)
		}
	}
}

func TestFormatWait(t *testing.T) {
	cases := map[int64]string{
		0:   "Less than 1 minute",
		1:   "1 minute",
		7:   "7 minutes",
		90:  "1.5 hours",
		120: "2.0 hours",
	}
	for in, want := range cases {
		if got := FormatWait(in); got != want {
			t.Errorf("FormatWait(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTimeToISO8601Str(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	if got := TimeToISO8601Str(ts); got != "2025-03-01T12:30:00Z" {
		t.Fatalf("unexpected format %q", got)
	}
}
