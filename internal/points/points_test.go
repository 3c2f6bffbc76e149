package points

import "testing"

func TestLevel(t *testing.T) {
	tests := []struct {
		name  string
		total int
		step  int
		want  int
	}{
		{"fresh user", 0, 100, 1},
		{"just below boundary", 99, 100, 1},
		{"at boundary", 100, 100, 2},
		{"mid level three", 250, 100, 3},
		{"negative total", -10, 100, 1},
		{"zero step falls back", 150, 0, 2},
		{"custom step", 150, 50, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Level(tt.total, tt.step); got != tt.want {
				t.Errorf("Level(%d, %d) = %d, want %d", tt.total, tt.step, got, tt.want)
			}
		})
	}
}

func TestToNextLevel(t *testing.T) {
	tests := []struct {
		name  string
		total int
		step  int
		want  int
	}{
		{"fresh user", 0, 100, 100},
		{"partway", 30, 100, 70},
		{"one short", 99, 100, 1},
		{"exactly at boundary needs a full step", 100, 100, 100},
		{"negative total", -5, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNextLevel(tt.total, tt.step); got != tt.want {
				t.Errorf("ToNextLevel(%d, %d) = %d, want %d", tt.total, tt.step, got, tt.want)
			}
		})
	}
}
