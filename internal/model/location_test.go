package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLocation(t *testing.T) {
	l := NewLocation(32369, 32241, 7)
	assert.Equal(t, Location{X: 32369, Y: 32241, Z: 7}, l)
	assert.Equal(t, "(32369, 32241, 7)", l.String())
	assert.False(t, l.IsContainer())
	assert.True(t, NewLocation(0xFFFF, 0x40, 2).IsContainer())
}

func TestLocation_DistanceSquared(t *testing.T) {
	tests := []struct {
		name string
		a, b Location
		want int64
	}{
		{"same", NewLocation(100, 100, 7), NewLocation(100, 100, 7), 0},
		{"x only", NewLocation(100, 100, 7), NewLocation(103, 100, 7), 9},
		{"all axes, b smaller", NewLocation(10, 10, 7), NewLocation(7, 6, 6), 9 + 16 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.DistanceSquared(tt.b))
			assert.Equal(t, tt.want, tt.b.DistanceSquared(tt.a))
		})
	}
}
