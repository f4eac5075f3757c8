package util

import "time"

const ISO8601Format = "2006-01-02T15:04:05Z"

func TimeToISO8601Str(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ISO8601Format)
}
