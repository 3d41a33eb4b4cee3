package grid

import (
	"fmt"
)

// Packed layout, most significant byte first:
//
//	31..24  room X + roomBias
//	23..16  room Y + roomBias
//	15..8   local x
//	 7..0   local y
//
// A biased room field of zero only appears in the simulation room, where both
// fields are zero.
const (
	roomBias   = 128
	maxLocal   = RoomSize - 1
	fieldMask  = 0xff
	roomXShift = 24
	roomYShift = 16
	localShift = 8
)

// Position is a cell in a room. It is stored packed, so two positions are
// equal exactly when their packed forms are, and Position works as a map key.
// The zero Position is (0, 0) in the simulation room.
type Position struct {
	packed uint32
}

// NewPosition builds a position from a room and in-room offsets.
func NewPosition(room RoomCoord, x, y uint8) (Position, error) {
	if x > maxLocal || y > maxLocal {
		return Position{}, fmt.Errorf("(%d, %d) in %s: %w", x, y, room, ErrInvalidLocal)
	}
	if !room.valid() {
		return Position{}, fmt.Errorf("room (%d, %d): %w", room.X, room.Y, ErrRoomOutOfRange)
	}
	return pack(room, x, y), nil
}

func pack(room RoomCoord, x, y uint8) Position {
	return Position{packed: uint32(room.X+roomBias)<<roomXShift |
		uint32(room.Y+roomBias)<<roomYShift |
		uint32(x)<<localShift |
		uint32(y)}
}

// Unpack validates an externally supplied packed value.
func Unpack(packed uint32) (Position, error) {
	rx := packed >> roomXShift & fieldMask
	ry := packed >> roomYShift & fieldMask
	x := packed >> localShift & fieldMask
	y := packed & fieldMask

	if x > maxLocal || y > maxLocal {
		return Position{}, fmt.Errorf("%#08x: local (%d, %d): %w", packed, x, y, ErrCorruptPackedPosition)
	}
	if (rx == 0) != (ry == 0) {
		return Position{}, fmt.Errorf("%#08x: reserved room field: %w", packed, ErrCorruptPackedPosition)
	}
	return Position{packed: packed}, nil
}

// MustPosition is NewPosition for constants known to be valid.
func MustPosition(room RoomCoord, x, y uint8) Position {
	p, err := NewPosition(room, x, y)
	if err != nil {
		panic(err)
	}
	return p
}

// Pack returns the 32-bit wire form.
func (p Position) Pack() uint32 {
	return p.packed
}

func (p Position) Room() RoomCoord {
	return RoomCoord{
		X: int(p.packed>>roomXShift&fieldMask) - roomBias,
		Y: int(p.packed>>roomYShift&fieldMask) - roomBias,
	}
}

func (p Position) X() uint8 {
	return uint8(p.packed >> localShift & fieldMask)
}

func (p Position) Y() uint8 {
	return uint8(p.packed & fieldMask)
}

// Coords returns the in-room offsets.
func (p Position) Coords() (uint8, uint8) {
	return p.X(), p.Y()
}

// World returns the position in the single linear space spanning all rooms.
func (p Position) World() (int64, int64) {
	r := p.Room()
	return int64(r.X)*RoomSize + int64(p.X()), int64(r.Y)*RoomSize + int64(p.Y())
}

// FromWorld is the inverse of World. Division floors so negative world
// coordinates still land on offsets in [0, 49].
func FromWorld(wx, wy int64) (Position, error) {
	rx, x := floorDivMod(wx, RoomSize)
	ry, y := floorDivMod(wy, RoomSize)

	room := RoomCoord{X: int(rx), Y: int(ry)}
	if rx < simAxis || rx > MaxRoomAxis || ry < simAxis || ry > MaxRoomAxis || !room.valid() {
		return Position{}, fmt.Errorf("world (%d, %d): %w", wx, wy, ErrRoomOutOfRange)
	}
	return pack(room, uint8(x), uint8(y)), nil
}

func floorDivMod(a, b int64) (int64, int64) {
	q, r := a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}

// Offset moves the position by (dx, dy) cells, crossing room edges as needed.
func (p Position) Offset(dx, dy int64) (Position, error) {
	wx, wy := p.World()
	return FromWorld(wx+dx, wy+dy)
}

// RangeTo is the number of single-cell moves (diagonals included) between p
// and o.
func (p Position) RangeTo(o Position) int64 {
	ax, ay := p.World()
	bx, by := o.World()
	return max(abs(ax-bx), abs(ay-by))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p Position) String() string {
	return fmt.Sprintf("[%s %d,%d]", p.Room(), p.X(), p.Y())
}
