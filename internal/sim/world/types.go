package world

import "fmt"

type Vec2i struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (v Vec2i) Add(o Vec2i) Vec2i { return Vec2i{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2i) Sub(o Vec2i) Vec2i { return Vec2i{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2i) ToArray() [2]int { return [2]int{v.X, v.Y} }

func Vec2iFromArray(a [2]int) Vec2i { return Vec2i{X: a[0], Y: a[1]} }

func (v Vec2i) String() string { return fmt.Sprintf("(%d,%d)", v.X, v.Y) }

// Dir is a cardinal orientation, clockwise from RIGHT.
type Dir int

const (
	DirRight Dir = iota
	DirDown
	DirLeft
	DirUp
)

func (d Dir) Valid() bool { return d >= DirRight && d <= DirUp }

func (d Dir) Delta() Vec2i {
	switch d {
	case DirDown:
		return Vec2i{Y: 1}
	case DirLeft:
		return Vec2i{X: -1}
	case DirUp:
		return Vec2i{Y: -1}
	default:
		return Vec2i{X: 1}
	}
}

func (d Dir) Next() Dir     { return (d + 1) & 3 }
func (d Dir) Prev() Dir     { return (d + 3) & 3 }
func (d Dir) Opposite() Dir { return (d + 2) & 3 }

// Vertical reports whether the orientation swaps a footprint's width and height.
func (d Dir) Vertical() bool { return d == DirDown || d == DirUp }

func (d Dir) String() string {
	switch d {
	case DirRight:
		return "RIGHT"
	case DirDown:
		return "DOWN"
	case DirLeft:
		return "LEFT"
	case DirUp:
		return "UP"
	}
	return fmt.Sprintf("Dir(%d)", int(d))
}

// DirToward returns the orientation of a unit step from a to b.
func DirToward(a, b Vec2i) (Dir, bool) {
	switch b.Sub(a) {
	case Vec2i{X: 1}:
		return DirRight, true
	case Vec2i{Y: 1}:
		return DirDown, true
	case Vec2i{X: -1}:
		return DirLeft, true
	case Vec2i{Y: -1}:
		return DirUp, true
	}
	return DirRight, false
}
