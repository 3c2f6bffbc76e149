package progress

import "testing"

func TestPercentage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"none done", 0, 3, 0},
		{"one of three", 1, 3, 33},
		{"two of three", 2, 3, 67},
		{"all done", 3, 3, 100},
		{"one of eight rounds up", 1, 8, 13},
		{"half rounds up", 1, 2, 50},
		{"one of two hundred", 1, 200, 1},
		{"zero total", 1, 0, 0},
		{"negative total", 1, -5, 0},
		{"negative completed", -1, 3, 0},
		{"completed above total clamps", 5, 3, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.completed, tt.total); got != tt.want {
				t.Errorf("Percentage(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
			}
		})
	}
}

func TestPercentageMonotonic(t *testing.T) {
	// Finishing one more chapter never lowers the percentage.
	const total = 37
	prev := 0
	for done := 0; done <= total; done++ {
		got := Percentage(done, total)
		if got < prev {
			t.Fatalf("Percentage(%d, %d) = %d dropped below %d", done, total, got, prev)
		}
		prev = got
	}
	if prev != 100 {
		t.Fatalf("finishing every chapter should reach 100, got %d", prev)
	}
}
