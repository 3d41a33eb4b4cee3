package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-gridmem/internal/grid"
)

// EntryPosition is the entry point a world exports to report where it is.
const EntryPosition = "pos"

// QueryPosition asks handle for its position. Worlds may answer with either a
// readable record or a packed integer.
func QueryPosition(ctx context.Context, inv Invoker, handle string) (grid.Position, error) {
	v, err := inv.Invoke(ctx, handle, EntryPosition)
	if err != nil {
		return grid.Position{}, err
	}

	b, err := v.MarshalJSON()
	if err != nil {
		return grid.Position{}, fmt.Errorf("re-encoding reply: %w", err)
	}

	var pos grid.Position
	if err := json.Unmarshal(b, &pos); err != nil {
		return grid.Position{}, fmt.Errorf("position from %s: %w", handle, err)
	}
	return pos, nil
}
