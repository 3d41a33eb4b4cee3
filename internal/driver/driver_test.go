package driver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type recordingManager struct {
	name  string
	calls *[]string
	err   error
}

func (m *recordingManager) Tick(context.Context) error {
	*m.calls = append(*m.calls, m.name)
	return m.err
}

func TestDriver_Tick(t *testing.T) {
	tests := map[string]struct {
		errAt    int
		expCalls int
		expErr   string
	}{
		"all managers run":    {errAt: -1, expCalls: 3},
		"error stops the run": {errAt: 1, expCalls: 2, expErr: "manager 1 failed"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var calls []string
			var managers []Manager
			for i := 0; i < 3; i++ {
				m := &recordingManager{name: fmt.Sprintf("m%d", i), calls: &calls}
				if i == tt.errAt {
					m.err = fmt.Errorf("manager %d failed", i)
				}
				managers = append(managers, m)
			}

			d := NewDriver(managers)
			err := d.Tick(context.Background())
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "calls", len(calls), tt.expCalls)
			testutil.AssertEqual(t, "ticks", d.Ticks(), uint64(1))
		})
	}
}

func TestDriver_Start(t *testing.T) {
	var calls []string
	d := NewDriver([]Manager{&recordingManager{name: "m", calls: &calls, err: fmt.Errorf("stop")}},
		WithTickLength(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := d.Start(ctx)
	testutil.AssertErrorContains(t, err, "stop")
	testutil.AssertEqual(t, "calls", len(calls), 1)
}

func TestDriver_StartStopsOnCancel(t *testing.T) {
	d := NewDriver(nil, WithTickLength(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Start(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "default tick length", NewDriver(nil).tickLength, DefaultTickLength)
}
