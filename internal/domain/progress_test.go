package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"three of four", 3, 4, 75},
		{"one of four", 1, 4, 25},
		{"all done", 4, 4, 100},
		{"none done", 0, 4, 0},
		{"rounds up", 1, 3, 33},
		{"rounds half up", 1, 8, 13},
		{"zero total", 2, 0, 0},
		{"negative total", 1, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.completed, tt.total))
		})
	}
}
