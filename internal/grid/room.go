package grid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// RoomSize is the number of cells along each side of a room.
	RoomSize = 50

	// MinRoomAxis and MaxRoomAxis bound a real room coordinate on either axis.
	// -128 is reserved for the simulation room.
	MinRoomAxis = -127
	MaxRoomAxis = 127

	simRoomName = "sim"
	simAxis     = MinRoomAxis - 1
)

var roomNamePattern = regexp.MustCompile(`^([EWew])([0-9]{1,3})([NSns])([0-9]{1,3})$`)

// SimRoom is the coordinate of the non-grid simulation room. It is not ordered
// relative to real rooms; compare it with == only.
var SimRoom = RoomCoord{X: simAxis, Y: simAxis}

// RoomCoord identifies a room on the world grid. East and north are
// non-negative; west and south start at -1 so there is no shared room zero.
type RoomCoord struct {
	X int
	Y int
}

// NewRoomCoord returns the coordinate after checking it is representable.
func NewRoomCoord(x, y int) (RoomCoord, error) {
	rc := RoomCoord{X: x, Y: y}
	if !rc.valid() {
		return RoomCoord{}, fmt.Errorf("room (%d, %d): %w", x, y, ErrRoomOutOfRange)
	}
	return rc, nil
}

// ParseRoomName parses names like "E3N6" or "w12s0". Direction letters are
// case-insensitive; numbers must not carry leading zeros.
func ParseRoomName(name string) (RoomCoord, error) {
	if strings.EqualFold(name, simRoomName) {
		return SimRoom, nil
	}

	m := roomNamePattern.FindStringSubmatch(name)
	if m == nil {
		return RoomCoord{}, fmt.Errorf("%q: %w", name, ErrMalformedRoomName)
	}

	x, err := parseAxis(m[1], m[2], 'E', 'W')
	if err != nil {
		return RoomCoord{}, fmt.Errorf("%q: %w", name, err)
	}
	y, err := parseAxis(m[3], m[4], 'N', 'S')
	if err != nil {
		return RoomCoord{}, fmt.Errorf("%q: %w", name, err)
	}

	return RoomCoord{X: x, Y: y}, nil
}

func parseAxis(dir string, digits string, pos byte, neg byte) (int, error) {
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q: %w", digits, ErrMalformedRoomName)
	}

	k, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedRoomName, err)
	}

	var v int
	switch strings.ToUpper(dir)[0] {
	case pos:
		v = k
	case neg:
		v = -k - 1
	}

	if v < MinRoomAxis || v > MaxRoomAxis {
		return 0, fmt.Errorf("%s%d out of range: %w", strings.ToUpper(dir), k, ErrMalformedRoomName)
	}
	return v, nil
}

// String formats the coordinate as an upper-case room name.
func (rc RoomCoord) String() string {
	if rc.IsSim() {
		return simRoomName
	}

	var b strings.Builder
	b.Grow(8)
	if rc.X >= 0 {
		b.WriteByte('E')
		b.WriteString(strconv.Itoa(rc.X))
	} else {
		b.WriteByte('W')
		b.WriteString(strconv.Itoa(-rc.X - 1))
	}
	if rc.Y >= 0 {
		b.WriteByte('N')
		b.WriteString(strconv.Itoa(rc.Y))
	} else {
		b.WriteByte('S')
		b.WriteString(strconv.Itoa(-rc.Y - 1))
	}
	return b.String()
}

// IsSim reports whether rc is the simulation room.
func (rc RoomCoord) IsSim() bool {
	return rc == SimRoom
}

func (rc RoomCoord) valid() bool {
	if rc.IsSim() {
		return true
	}
	return rc.X >= MinRoomAxis && rc.X <= MaxRoomAxis &&
		rc.Y >= MinRoomAxis && rc.Y <= MaxRoomAxis
}

func (rc RoomCoord) MarshalText() ([]byte, error) {
	if !rc.valid() {
		return nil, fmt.Errorf("room (%d, %d): %w", rc.X, rc.Y, ErrRoomOutOfRange)
	}
	return []byte(rc.String()), nil
}

func (rc *RoomCoord) UnmarshalText(text []byte) error {
	parsed, err := ParseRoomName(string(text))
	if err != nil {
		return err
	}
	*rc = parsed
	return nil
}
