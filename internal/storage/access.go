package storage

import (
	"encoding/json"
	"math"
)

// Lookup walks p from root. A key segment must meet a map and an index
// segment a list; any other combination, a missing key, or an index past the
// end is reported as not found. The result is a deep copy, so editing it
// leaves root untouched.
func Lookup(root Value, p Path) (Value, bool) {
	v, ok := lookup(root, p)
	if !ok {
		return Value{}, false
	}
	return v.Clone(), true
}

// lookup is Lookup without the copy; the result shares storage with root.
func lookup(root Value, p Path) (Value, bool) {
	cur := root
	for _, seg := range p {
		var ok bool
		switch {
		case seg.Kind == SegmentKey && cur.kind == KindMap:
			cur, ok = cur.Key(seg.Raw)
		case seg.Kind == SegmentIndex && cur.kind == KindList:
			cur, ok = cur.Index(seg.Index)
		}
		if !ok {
			return Value{}, false
		}
	}
	if cur.IsAbsent() {
		return Value{}, false
	}
	return cur, true
}

// Get looks up p and converts the result to T. A missing path and a value of
// the wrong shape both return false, so callers need a single fallback.
//
// Supported targets are Value, []Value, bool, string, the integer and float
// kinds, and anything encoding/json can decode into (structs, maps, slices,
// types with an UnmarshalJSON method).
func Get[T any](root Value, p Path) (T, bool) {
	var out T
	v, ok := lookup(root, p)
	if !ok {
		return out, false
	}
	if !convert(v, &out) {
		var zero T
		return zero, false
	}
	return out, true
}

func convert(v Value, out any) bool {
	switch t := out.(type) {
	case *Value:
		*t = v.Clone()
		return true
	case *[]Value:
		if v.kind != KindList {
			return false
		}
		*t = v.Clone().list
		return true
	case *bool:
		b, ok := v.AsBool()
		*t = b
		return ok
	case *string:
		s, ok := v.AsString()
		*t = s
		return ok
	case *float64:
		n, ok := v.AsNumber()
		*t = n
		return ok
	case *float32:
		n, ok := v.AsNumber()
		if !ok || math.Abs(n) > math.MaxFloat32 {
			return false
		}
		*t = float32(n)
		return true
	case *int:
		n, ok := integral(v, -0x1p63, 0x1p63)
		*t = int(n)
		return ok
	case *int8:
		n, ok := integral(v, math.MinInt8, math.MaxInt8+1)
		*t = int8(n)
		return ok
	case *int16:
		n, ok := integral(v, math.MinInt16, math.MaxInt16+1)
		*t = int16(n)
		return ok
	case *int32:
		n, ok := integral(v, math.MinInt32, math.MaxInt32+1)
		*t = int32(n)
		return ok
	case *int64:
		n, ok := integral(v, -0x1p63, 0x1p63)
		*t = int64(n)
		return ok
	case *uint:
		n, ok := integral(v, 0, 0x1p64)
		*t = uint(n)
		return ok
	case *uint8:
		n, ok := integral(v, 0, math.MaxUint8+1)
		*t = uint8(n)
		return ok
	case *uint16:
		n, ok := integral(v, 0, math.MaxUint16+1)
		*t = uint16(n)
		return ok
	case *uint32:
		n, ok := integral(v, 0, math.MaxUint32+1)
		*t = uint32(n)
		return ok
	case *uint64:
		n, ok := integral(v, 0, 0x1p64)
		*t = uint64(n)
		return ok
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return false
		}
		return json.Unmarshal(b, out) == nil
	}
}

// integral returns v's number if it is a whole number in [lo, hi).
func integral(v Value, lo, hi float64) (float64, bool) {
	n, ok := v.AsNumber()
	if !ok || n != math.Trunc(n) || n < lo || n >= hi {
		return 0, false
	}
	return n, true
}

// Set writes v at p, creating containers along the way. It never fails: a
// position holding the wrong kind of container, or a scalar, is replaced by
// a fresh map (for a key segment) or list (for an index segment), discarding
// what was there. Lists are padded with null up to the index. Setting an
// absent value removes a map key (a list slot becomes null); ancestors are
// kept either way.
func Set(root *Value, p Path, v Value) {
	if len(p) == 0 {
		*root = v
		return
	}

	cur := root
	for i, seg := range p {
		cur.ensureContainer(seg)
		if i == len(p)-1 {
			cur.assign(seg, v)
			return
		}
		cur = cur.slot(seg)
	}
}

func (v *Value) ensureContainer(seg Segment) {
	switch seg.Kind {
	case SegmentKey:
		if v.kind != KindMap {
			*v = Map()
		}
	case SegmentIndex:
		if v.kind != KindList {
			*v = List()
		}
	}
}

// slot returns a pointer to the child at seg, creating it if missing. v must
// already be the container seg expects.
func (v *Value) slot(seg Segment) *Value {
	if seg.Kind == SegmentIndex {
		v.padTo(seg.Index)
		return &v.list[seg.Index]
	}
	for i := range v.entries {
		if v.entries[i].Key == seg.Raw {
			return &v.entries[i].Value
		}
	}
	v.entries = append(v.entries, MapEntry{Key: seg.Raw})
	return &v.entries[len(v.entries)-1].Value
}

func (v *Value) padTo(idx int) {
	for len(v.list) <= idx {
		v.list = append(v.list, Null())
	}
}

func (v *Value) assign(seg Segment, val Value) {
	if seg.Kind == SegmentIndex {
		v.padTo(seg.Index)
		if val.IsAbsent() {
			val = Null()
		}
		v.list[seg.Index] = val
		return
	}
	if val.IsAbsent() {
		v.DeleteKey(seg.Raw)
		return
	}
	v.SetKey(seg.Raw, val)
}

// Delete removes the map key or list item at p and reports whether anything
// was removed. Later list items shift down. Containers left empty are kept.
func Delete(root *Value, p Path) bool {
	if len(p) == 0 {
		return false
	}

	cur := root
	for _, seg := range p[:len(p)-1] {
		cur = cur.existing(seg)
		if cur == nil {
			return false
		}
	}

	last := p[len(p)-1]
	switch {
	case last.Kind == SegmentKey && cur.kind == KindMap:
		return cur.DeleteKey(last.Raw)
	case last.Kind == SegmentIndex && cur.kind == KindList:
		if last.Index >= len(cur.list) {
			return false
		}
		cur.list = append(cur.list[:last.Index], cur.list[last.Index+1:]...)
		return true
	default:
		return false
	}
}

// existing returns a pointer to the child at seg without creating anything.
func (v *Value) existing(seg Segment) *Value {
	switch {
	case seg.Kind == SegmentKey && v.kind == KindMap:
		for i := range v.entries {
			if v.entries[i].Key == seg.Raw {
				return &v.entries[i].Value
			}
		}
	case seg.Kind == SegmentIndex && v.kind == KindList:
		if seg.Index < len(v.list) {
			return &v.list[seg.Index]
		}
	}
	return nil
}
