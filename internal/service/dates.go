package service

import "time"

// DateLayout is the provider's date format.
const DateLayout = "2006-01-02"

// Daily bars for the current session are published after this local time.
const (
	publishHour   = 17
	publishMinute = 30
)

// DefaultEndDate returns today when now is past 17:30 local time, otherwise
// yesterday, formatted as YYYY-MM-DD.
func DefaultEndDate(now time.Time) string {
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), publishHour, publishMinute, 0, 0, now.Location())
	if now.After(cutoff) {
		return now.Format(DateLayout)
	}
	return now.AddDate(0, 0, -1).Format(DateLayout)
}

// ResolveRange fills in missing bounds: end defaults to DefaultEndDate(now)
// and start defaults to end.
func ResolveRange(startDate, endDate string, now time.Time) (string, string) {
	if endDate == "" {
		endDate = DefaultEndDate(now)
	}
	if startDate == "" {
		startDate = endDate
	}
	return startDate, endDate
}
