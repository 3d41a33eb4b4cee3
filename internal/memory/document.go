package memory

import (
	"fmt"

	"github.com/pixil98/go-gridmem/internal/storage"
)

// Document is the persisted form of a memory tree.
type Document struct {
	Root storage.Value `json:"root"`
}

// NewDocument returns a document holding an empty map.
func NewDocument() *Document {
	return &Document{Root: storage.Map()}
}

func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("document is missing")
	}
	switch d.Root.Kind() {
	case storage.KindAbsent, storage.KindNull, storage.KindMap:
		return nil
	default:
		return fmt.Errorf("root must be a map, got %s", d.Root.Kind())
	}
}
