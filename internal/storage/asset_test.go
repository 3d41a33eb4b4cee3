package storage

import (
	"fmt"
	"testing"

	"github.com/pixil98/go-gridmem/internal/grid"
	"github.com/pixil98/go-testutil"
)

// roomSpec is a small ValidatingSpec keyed to a room name.
type roomSpec struct {
	Room  string `json:"room"`
	Level int    `json:"level"`
}

func (s *roomSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("spec is missing")
	}
	if _, err := grid.ParseRoomName(s.Room); err != nil {
		return fmt.Errorf("room: %w", err)
	}
	return nil
}

func TestAsset_Validate(t *testing.T) {
	tests := map[string]struct {
		asset   Asset[*roomSpec]
		expErrs []string
	}{
		"valid": {
			asset: Asset[*roomSpec]{Version: 1, Identifier: "home-room", Spec: &roomSpec{Room: "W7N3"}},
		},
		"underscore allowed": {
			asset: Asset[*roomSpec]{Version: 1, Identifier: "home_room", Spec: &roomSpec{Room: "sim"}},
		},
		"version not set": {
			asset:   Asset[*roomSpec]{Identifier: "home", Spec: &roomSpec{Room: "W7N3"}},
			expErrs: []string{"version must be set"},
		},
		"empty identifier": {
			asset:   Asset[*roomSpec]{Version: 1, Spec: &roomSpec{Room: "W7N3"}},
			expErrs: []string{"id must be set"},
		},
		"identifier with dot": {
			asset:   Asset[*roomSpec]{Version: 1, Identifier: "home.room", Spec: &roomSpec{Room: "W7N3"}},
			expErrs: []string{"must contain only letters"},
		},
		"identifier with path separator": {
			asset:   Asset[*roomSpec]{Version: 1, Identifier: "../home", Spec: &roomSpec{Room: "W7N3"}},
			expErrs: []string{"must contain only letters"},
		},
		"bad room": {
			asset:   Asset[*roomSpec]{Version: 1, Identifier: "home", Spec: &roomSpec{Room: "X1Y1"}},
			expErrs: []string{"room:"},
		},
		"missing spec": {
			asset:   Asset[*roomSpec]{Version: 1, Identifier: "home"},
			expErrs: []string{"spec is missing"},
		},
		"all at once": {
			asset:   Asset[*roomSpec]{Spec: &roomSpec{Room: ""}},
			expErrs: []string{"version must be set", "id must be set", "room:"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.asset.Validate()

			if len(tt.expErrs) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			for _, e := range tt.expErrs {
				testutil.AssertErrorContains(t, err, e)
			}
		})
	}
}
