package grid

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestCostMatrix_GetSet(t *testing.T) {
	m := NewCostMatrix()

	if err := m.Set(3, 4, 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Get(3, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "cost", v, uint8(200))
	testutil.AssertEqual(t, "index", m.Bits()[3*50+4], uint8(200))

	if err := m.Set(50, 0, 1); !errors.Is(err, ErrInvalidLocal) {
		t.Errorf("expected ErrInvalidLocal, got %v", err)
	}
	if _, err := m.Get(0, 50); !errors.Is(err, ErrInvalidLocal) {
		t.Errorf("expected ErrInvalidLocal, got %v", err)
	}

	p := MustPosition(RoomCoord{X: 1, Y: 2}, 49, 49)
	m.SetAt(p, 7)
	testutil.AssertEqual(t, "at position", m.GetAt(p), uint8(7))
}

func TestCostMatrix_Merge(t *testing.T) {
	dst := NewCostMatrix()
	_ = dst.Set(0, 0, 5)
	_ = dst.Set(1, 1, 6)

	src := NewCostMatrix()
	_ = src.Set(1, 1, 9)
	_ = src.Set(2, 2, 10)

	dst.MergeDense(src)
	for _, c := range []struct {
		x, y uint8
		exp  uint8
	}{{0, 0, 5}, {1, 1, 9}, {2, 2, 10}} {
		v, _ := dst.Get(c.x, c.y)
		testutil.AssertEqual(t, "merged dense", v, c.exp)
	}

	sparse := NewSparseCostMatrix()
	_ = sparse.Set(0, 0, 0)
	_ = sparse.Set(3, 3, 1)
	dst.MergeSparse(sparse)

	v, _ := dst.Get(0, 0)
	testutil.AssertEqual(t, "sparse zero overwrites", v, uint8(0))
	v, _ = dst.Get(3, 3)
	testutil.AssertEqual(t, "sparse value", v, uint8(1))
}

func TestSparseCostMatrix(t *testing.T) {
	s := NewSparseCostMatrix()
	if err := s.Set(10, 20, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set(60, 20, 3); !errors.Is(err, ErrInvalidLocal) {
		t.Errorf("expected ErrInvalidLocal, got %v", err)
	}

	v, err := s.Get(10, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "cost", v, uint8(3))

	v, err = s.Get(11, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "unset cost", v, uint8(0))

	dense := NewCostMatrix()
	_ = dense.Set(1, 1, 4)
	s.MergeDense(dense)
	testutil.AssertEqual(t, "len after dense merge", s.Len(), 2)

	other := NewSparseCostMatrix()
	_ = other.Set(10, 20, 8)
	_ = other.Set(2, 2, 0)
	s.MergeSparse(other)
	testutil.AssertEqual(t, "len after sparse merge", s.Len(), 3)

	back := s.Dense().Sparse()
	testutil.AssertEqual(t, "zero entries dropped", back.Len(), 2)
}

func TestSparseCostMatrix_ZeroValue(t *testing.T) {
	var s SparseCostMatrix
	v, err := s.Get(1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "empty get", v, uint8(0))

	if err := s.Set(1, 1, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "len after set", s.Len(), 1)

	var merged SparseCostMatrix
	merged.MergeSparse(&s)
	testutil.AssertEqual(t, "len after sparse merge", merged.Len(), 1)

	var fromDense SparseCostMatrix
	fromDense.MergeDense(s.Dense())
	testutil.AssertEqual(t, "len after dense merge", fromDense.Len(), 1)
}

func TestCostMatrix_JSON(t *testing.T) {
	m := NewCostMatrix()
	_ = m.Set(0, 1, 255)

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(b), "[0,255,0") {
		t.Errorf("unexpected encoding prefix: %.20s", b)
	}

	var back CostMatrix
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "round trip", back.bits, m.bits)

	err = json.Unmarshal([]byte("[1,2,3]"), &back)
	testutil.AssertErrorContains(t, err, "expected 2500")

	short := make([]int, CostMatrixSize)
	short[7] = 256
	bad, _ := json.Marshal(short)
	err = json.Unmarshal(bad, &back)
	testutil.AssertErrorContains(t, err, "out of range")
}

func TestSparseCostMatrix_JSON(t *testing.T) {
	s := NewSparseCostMatrix()
	_ = s.Set(2, 0, 9)
	_ = s.Set(0, 3, 1)

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "json", string(b), "[[0,3,1],[2,0,9]]")

	back := NewSparseCostMatrix()
	if err := json.Unmarshal(b, back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "len", back.Len(), 2)

	err = json.Unmarshal([]byte("[[50,0,1]]"), back)
	if !errors.Is(err, ErrInvalidLocal) {
		t.Errorf("expected ErrInvalidLocal, got %v", err)
	}
}
