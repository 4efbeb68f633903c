package orm

import "testing"

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, perPage, want int
	}{
		{47, 25, 2},
		{50, 25, 2},
		{51, 25, 3},
		{0, 25, 0},
		{1, 1, 1},
		{10, 0, 0},
	}

	for _, tt := range tests {
		if got := pageCount(tt.total, tt.perPage); got != tt.want {
			t.Errorf("pageCount(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}
