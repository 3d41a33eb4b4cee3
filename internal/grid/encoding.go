package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Mode selects how a Position is written. Reading never needs a mode: both
// shapes are accepted, since stored data contains a mix of the two.
type Mode int

const (
	ModeCompact Mode = iota
	ModeReadable
)

func (m Mode) String() string {
	switch m {
	case ModeCompact:
		return "compact"
	case ModeReadable:
		return "readable"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "compact":
		*m = ModeCompact
	case "readable":
		*m = ModeReadable
	default:
		return fmt.Errorf("unknown position mode: %s", text)
	}
	return nil
}

// Record is the readable form of a Position. The field names are relied on by
// existing readers.
type Record struct {
	RoomName string `json:"roomName"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// Position converts the record, validating the room name and offsets.
func (r Record) Position() (Position, error) {
	room, err := ParseRoomName(r.RoomName)
	if err != nil {
		return Position{}, err
	}
	if r.X < 0 || r.X > maxLocal || r.Y < 0 || r.Y > maxLocal {
		return Position{}, fmt.Errorf("(%d, %d) in %s: %w", r.X, r.Y, room, ErrInvalidLocal)
	}
	return NewPosition(room, uint8(r.X), uint8(r.Y))
}

// Record returns the readable form of p.
func (p Position) Record() Record {
	return Record{RoomName: p.Room().String(), X: int(p.X()), Y: int(p.Y())}
}

// Encode returns a value that marshals to the requested shape: a Record for
// ModeReadable, the packed uint32 otherwise.
func (p Position) Encode(m Mode) any {
	if m == ModeReadable {
		return p.Record()
	}
	return p.packed
}

// MarshalJSON writes the compact form. Use Encode to choose the shape.
func (p Position) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(p.packed), 10), nil
}

// UnmarshalJSON accepts either a readable record or a packed integer.
func (p *Position) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty input: %w", ErrPositionShape)
	}

	switch {
	case b[0] == '{':
		var raw struct {
			RoomName *string     `json:"roomName"`
			X        json.Number `json:"x"`
			Y        json.Number `json:"y"`
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("decoding position record: %w", err)
		}
		if raw.RoomName == nil {
			return fmt.Errorf("record without roomName: %w", ErrPositionShape)
		}
		x, err := numberToInt(raw.X)
		if err != nil {
			return fmt.Errorf("position x: %w", err)
		}
		y, err := numberToInt(raw.Y)
		if err != nil {
			return fmt.Errorf("position y: %w", err)
		}
		pos, err := Record{RoomName: *raw.RoomName, X: x, Y: y}.Position()
		if err != nil {
			return err
		}
		*p = pos
		return nil

	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		packed, err := numberToPacked(json.Number(b))
		if err != nil {
			return err
		}
		pos, err := Unpack(packed)
		if err != nil {
			return err
		}
		*p = pos
		return nil

	default:
		return fmt.Errorf("%.32s: %w", b, ErrPositionShape)
	}
}

// DecodePosition applies the same shape rules as UnmarshalJSON to a value that
// has already been decoded, e.g. by encoding/json into an any.
func DecodePosition(v any) (Position, error) {
	switch t := v.(type) {
	case Position:
		return t, nil
	case Record:
		return t.Position()
	case *Record:
		if t == nil {
			return Position{}, fmt.Errorf("nil record: %w", ErrPositionShape)
		}
		return t.Position()
	case map[string]any:
		return decodeRecordMap(t)
	case uint32:
		return Unpack(t)
	case uint64:
		if t > math.MaxUint32 {
			return Position{}, fmt.Errorf("%d: %w", t, ErrCorruptPackedPosition)
		}
		return Unpack(uint32(t))
	case int:
		return decodePackedInt(int64(t))
	case int64:
		return decodePackedInt(t)
	case float64:
		if t != math.Trunc(t) {
			return Position{}, fmt.Errorf("%v: %w", t, ErrCorruptPackedPosition)
		}
		return decodePackedInt(int64(t))
	case json.Number:
		packed, err := numberToPacked(t)
		if err != nil {
			return Position{}, err
		}
		return Unpack(packed)
	default:
		return Position{}, fmt.Errorf("%T: %w", v, ErrPositionShape)
	}
}

func decodeRecordMap(m map[string]any) (Position, error) {
	name, ok := m["roomName"].(string)
	if !ok {
		return Position{}, fmt.Errorf("record without roomName: %w", ErrPositionShape)
	}
	x, err := anyToInt(m["x"])
	if err != nil {
		return Position{}, fmt.Errorf("position x: %w", err)
	}
	y, err := anyToInt(m["y"])
	if err != nil {
		return Position{}, fmt.Errorf("position y: %w", err)
	}
	return Record{RoomName: name, X: x, Y: y}.Position()
}

func decodePackedInt(v int64) (Position, error) {
	if v < 0 || v > math.MaxUint32 {
		return Position{}, fmt.Errorf("%d: %w", v, ErrCorruptPackedPosition)
	}
	return Unpack(uint32(v))
}

func numberToPacked(n json.Number) (uint32, error) {
	if u, err := strconv.ParseUint(n.String(), 10, 32); err == nil {
		return uint32(u), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxUint32 {
		return 0, fmt.Errorf("%s: %w", n, ErrCorruptPackedPosition)
	}
	return uint32(f), nil
}

func numberToInt(n json.Number) (int, error) {
	if n == "" {
		return 0, fmt.Errorf("missing: %w", ErrPositionShape)
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s: %w", n, ErrInvalidLocal)
	}
	return int(f), nil
}

func anyToInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint8:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%v: %w", t, ErrInvalidLocal)
		}
		return int(t), nil
	case json.Number:
		return numberToInt(t)
	case nil:
		return 0, fmt.Errorf("missing: %w", ErrPositionShape)
	default:
		return 0, fmt.Errorf("%T: %w", v, ErrPositionShape)
	}
}
