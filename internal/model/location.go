package model

import "fmt"

// Location is a map position: x and y are 16-bit, the floor is one byte.
// Value type, passed by value.
type Location struct {
	X uint16
	Y uint16
	Z uint8
}

// NewLocation creates a Location.
func NewLocation(x, y uint16, z uint8) Location {
	return Location{X: x, Y: y, Z: z}
}

// IsContainer reports whether the location addresses an inventory or
// container slot instead of a map tile (x == 0xFFFF).
func (l Location) IsContainer() bool {
	return l.X == 0xFFFF
}

// DistanceSquared returns the squared distance to another point on any floor.
func (l Location) DistanceSquared(other Location) int64 {
	dx := int64(l.X) - int64(other.X)
	dy := int64(l.Y) - int64(other.Y)
	dz := int64(l.Z) - int64(other.Z)
	return dx*dx + dy*dy + dz*dz
}

func (l Location) String() string {
	return fmt.Sprintf("(%d, %d, %d)", l.X, l.Y, l.Z)
}
