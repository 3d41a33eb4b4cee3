package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxIndex is the largest list index a parsed path may carry. Set pads lists
// with null up to the index, so an unbounded index would let one path
// allocate without limit.
const MaxIndex = 1<<16 - 1

var (
	ErrEmptyPath     = errors.New("empty path")
	ErrIndexTooLarge = errors.New("index too large")
)

// SegmentKind says whether a segment addresses a map key or a list index.
type SegmentKind uint8

const (
	SegmentKey SegmentKind = iota
	SegmentIndex
)

// Segment is one dot-separated token of a Path. Raw keeps the original text
// so a parsed path prints back exactly as it was written.
type Segment struct {
	Kind  SegmentKind
	Raw   string
	Index int
}

// KeySeg builds a key segment. There is no escaping, so a key containing a
// dot, or made only of digits, will not survive a String/ParsePath round trip.
func KeySeg(key string) Segment {
	return Segment{Kind: SegmentKey, Raw: key}
}

func IndexSeg(i int) Segment {
	return Segment{Kind: SegmentIndex, Raw: strconv.Itoa(i), Index: i}
}

func (s Segment) String() string {
	return s.Raw
}

// Path is a non-empty sequence of segments addressing a node in a Value tree.
type Path []Segment

// ParsePath splits s on '.'. Segments made only of ASCII digits are index
// segments; all others, including empty ones, are keys. An index above
// MaxIndex is an error.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, ErrEmptyPath
	}

	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		p[i] = seg
	}
	return p, nil
}

// MustParsePath is ParsePath for literal paths.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(raw string) (Segment, error) {
	if raw == "" {
		return KeySeg(raw), nil
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return KeySeg(raw), nil
		}
	}

	idx, err := strconv.Atoi(raw)
	if err != nil || idx > MaxIndex {
		return Segment{}, fmt.Errorf("segment %q: %w", raw, ErrIndexTooLarge)
	}
	return Segment{Kind: SegmentIndex, Raw: raw, Index: idx}, nil
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.Raw
	}
	return strings.Join(parts, ".")
}

// Child returns a new path with segs appended.
func (p Path) Child(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}
