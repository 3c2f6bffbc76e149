package streak

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityStudy ActivityType = "study"
	ActivityLogin ActivityType = "login"
)

// DailyActivity is one mark per user, activity type and calendar day, no
// matter how many qualifying actions happened that day.
type DailyActivity struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	ActivityType ActivityType `json:"activity_type" db:"activity_type"`
	ActivityDate time.Time    `json:"activity_date" db:"activity_date"`
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Consecutive counts the run of consecutive marked days ending today, or
// ending yesterday when today has no mark yet. dates must be sorted newest
// first. A gap before yesterday means the streak is 0.
func Consecutive(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	anchor := day(today)
	latest := day(dates[0])
	if latest.Before(anchor.AddDate(0, 0, -1)) {
		return 0
	}
	count := 0
	expect := latest
	for _, d := range dates {
		d = day(d)
		if d.After(expect) {
			continue
		}
		if !d.Equal(expect) {
			break
		}
		count++
		expect = expect.AddDate(0, 0, -1)
	}
	return count
}

// Longest returns the longest run of consecutive days anywhere in dates.
// dates must be sorted newest first.
func Longest(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	longest, run := 1, 1
	prev := day(dates[0])
	for _, d := range dates[1:] {
		d = day(d)
		if d.Equal(prev) {
			continue
		}
		if d.Equal(prev.AddDate(0, 0, -1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return longest
}
