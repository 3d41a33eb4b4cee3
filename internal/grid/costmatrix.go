package grid

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// CostMatrixSize is the number of cells in one room.
const CostMatrixSize = RoomSize * RoomSize

func cellIndex(x, y uint8) int {
	return int(x)*RoomSize + int(y)
}

func cellCoords(i int) (uint8, uint8) {
	return uint8(i / RoomSize), uint8(i % RoomSize)
}

func checkLocal(x, y uint8) error {
	if x > maxLocal || y > maxLocal {
		return fmt.Errorf("(%d, %d): %w", x, y, ErrInvalidLocal)
	}
	return nil
}

// CostMatrix holds one movement cost per cell of a room. Zero means the cell
// uses the terrain default.
type CostMatrix struct {
	bits [CostMatrixSize]uint8
}

func NewCostMatrix() *CostMatrix {
	return &CostMatrix{}
}

func (m *CostMatrix) Get(x, y uint8) (uint8, error) {
	if err := checkLocal(x, y); err != nil {
		return 0, err
	}
	return m.bits[cellIndex(x, y)], nil
}

func (m *CostMatrix) Set(x, y uint8, cost uint8) error {
	if err := checkLocal(x, y); err != nil {
		return err
	}
	m.bits[cellIndex(x, y)] = cost
	return nil
}

// GetAt and SetAt cannot fail: a Position always holds valid offsets.
func (m *CostMatrix) GetAt(p Position) uint8 {
	return m.bits[cellIndex(p.Coords())]
}

func (m *CostMatrix) SetAt(p Position, cost uint8) {
	m.bits[cellIndex(p.Coords())] = cost
}

// Bits returns a copy of the matrix, indexed by x*50 + y.
func (m *CostMatrix) Bits() []uint8 {
	return slices.Clone(m.bits[:])
}

// MergeDense copies every non-zero cell of src over m.
func (m *CostMatrix) MergeDense(src *CostMatrix) {
	for i, v := range src.bits {
		if v > 0 {
			m.bits[i] = v
		}
	}
}

// MergeSparse copies every entry of src over m.
func (m *CostMatrix) MergeSparse(src *SparseCostMatrix) {
	for c, v := range src.cells {
		m.bits[cellIndex(c.X, c.Y)] = v
	}
}

// Sparse returns the non-zero cells of m.
func (m *CostMatrix) Sparse() *SparseCostMatrix {
	s := NewSparseCostMatrix()
	s.MergeDense(m)
	return s
}

func (m *CostMatrix) MarshalJSON() ([]byte, error) {
	vals := make([]int, CostMatrixSize)
	for i, v := range m.bits {
		vals[i] = int(v)
	}
	return json.Marshal(vals)
}

func (m *CostMatrix) UnmarshalJSON(b []byte) error {
	var vals []int
	if err := json.Unmarshal(b, &vals); err != nil {
		return fmt.Errorf("decoding cost matrix: %w", err)
	}
	if len(vals) != CostMatrixSize {
		return fmt.Errorf("cost matrix has %d cells, expected %d", len(vals), CostMatrixSize)
	}

	var bits [CostMatrixSize]uint8
	for i, v := range vals {
		if v < 0 || v > 255 {
			return fmt.Errorf("cost matrix cell %d: cost %d out of range", i, v)
		}
		bits[i] = uint8(v)
	}
	m.bits = bits
	return nil
}

// Cell is an in-room offset pair.
type Cell struct {
	X uint8
	Y uint8
}

// SparseCostMatrix holds costs for a subset of cells. The zero value is an
// empty matrix ready to use.
type SparseCostMatrix struct {
	cells map[Cell]uint8
}

func NewSparseCostMatrix() *SparseCostMatrix {
	return &SparseCostMatrix{cells: map[Cell]uint8{}}
}

// Get returns zero for cells without an entry.
func (s *SparseCostMatrix) Get(x, y uint8) (uint8, error) {
	if err := checkLocal(x, y); err != nil {
		return 0, err
	}
	return s.cells[Cell{X: x, Y: y}], nil
}

func (s *SparseCostMatrix) Set(x, y uint8, cost uint8) error {
	if err := checkLocal(x, y); err != nil {
		return err
	}
	s.init()
	s.cells[Cell{X: x, Y: y}] = cost
	return nil
}

func (s *SparseCostMatrix) init() {
	if s.cells == nil {
		s.cells = map[Cell]uint8{}
	}
}

func (s *SparseCostMatrix) Len() int {
	return len(s.cells)
}

// MergeDense copies every non-zero cell of src into s.
func (s *SparseCostMatrix) MergeDense(src *CostMatrix) {
	s.init()
	for i, v := range src.bits {
		if v > 0 {
			x, y := cellCoords(i)
			s.cells[Cell{X: x, Y: y}] = v
		}
	}
}

// MergeSparse copies every entry of src into s.
func (s *SparseCostMatrix) MergeSparse(src *SparseCostMatrix) {
	s.init()
	maps.Copy(s.cells, src.cells)
}

// Dense expands s into a full matrix.
func (s *SparseCostMatrix) Dense() *CostMatrix {
	m := NewCostMatrix()
	m.MergeSparse(s)
	return m
}

// MarshalJSON writes [x, y, cost] triples sorted by cell index.
func (s *SparseCostMatrix) MarshalJSON() ([]byte, error) {
	keys := slices.SortedFunc(maps.Keys(s.cells), func(a, b Cell) int {
		return cellIndex(a.X, a.Y) - cellIndex(b.X, b.Y)
	})

	out := make([][3]int, 0, len(keys))
	for _, c := range keys {
		out = append(out, [3]int{int(c.X), int(c.Y), int(s.cells[c])})
	}
	return json.Marshal(out)
}

func (s *SparseCostMatrix) UnmarshalJSON(b []byte) error {
	var triples [][3]uint8
	if err := json.Unmarshal(b, &triples); err != nil {
		return fmt.Errorf("decoding sparse cost matrix: %w", err)
	}

	cells := make(map[Cell]uint8, len(triples))
	for _, t := range triples {
		if err := checkLocal(t[0], t[1]); err != nil {
			return fmt.Errorf("sparse cost matrix: %w", err)
		}
		cells[Cell{X: t[0], Y: t[1]}] = t[2]
	}
	s.cells = cells
	return nil
}
