package streak

import (
	"testing"
	"time"
)

var today = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func days(offsets ...int) []time.Time {
	out := make([]time.Time, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, today.AddDate(0, 0, -o))
	}
	return out
}

func TestConsecutive(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{"no activity", nil, 0},
		{"today only", []int{0}, 1},
		{"today and yesterday", []int{0, 1}, 2},
		{"run ending yesterday", []int{1, 2, 3}, 3},
		{"latest two days ago", []int{2, 3}, 0},
		{"gap inside run", []int{0, 1, 3, 4}, 2},
		{"long unbroken run", []int{0, 1, 2, 3, 4, 5, 6}, 7},
		{"single old mark", []int{30}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Consecutive(days(tt.offsets...), today); got != tt.want {
				t.Errorf("Consecutive(%v) = %d, want %d", tt.offsets, got, tt.want)
			}
		})
	}
}

func TestConsecutiveIgnoresTimeOfDay(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 0, 1, 0, 0, time.UTC),
	}
	if got := Consecutive(dates, today); got != 2 {
		t.Errorf("Consecutive across day boundaries = %d, want 2", got)
	}
}

func TestLongest(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{"no activity", nil, 0},
		{"single day", []int{5}, 1},
		{"current run is longest", []int{0, 1, 2, 10}, 3},
		{"old run is longest", []int{0, 5, 6, 7, 8}, 4},
		{"duplicate days collapse", []int{0, 0, 1, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Longest(days(tt.offsets...)); got != tt.want {
				t.Errorf("Longest(%v) = %d, want %d", tt.offsets, got, tt.want)
			}
		})
	}
}
