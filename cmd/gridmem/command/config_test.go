package command

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-gridmem/internal/grid"
	"github.com/pixil98/go-testutil"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		TickInterval: "1s",
		Storage:      StorageConfig{Path: t.TempDir()},
		World:        WorldConfig{Handles: []string{"alpha", "beta"}},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(t *testing.T, c *Config)
		expErrs []string
	}{
		"valid": {
			mutate: func(t *testing.T, c *Config) {},
		},
		"bad tick interval": {
			mutate:  func(t *testing.T, c *Config) { c.TickInterval = "soon" },
			expErrs: []string{"parsing tick_interval"},
		},
		"tick too short": {
			mutate:  func(t *testing.T, c *Config) { c.TickInterval = "10ms" },
			expErrs: []string{"tick_interval must be at least 100ms"},
		},
		"missing storage path": {
			mutate:  func(t *testing.T, c *Config) { c.Storage.Path = "" },
			expErrs: []string{"storage path is required"},
		},
		"file backend needs a directory": {
			mutate: func(t *testing.T, c *Config) {
				f := filepath.Join(t.TempDir(), "memory.db")
				if err := os.WriteFile(f, nil, 0644); err != nil {
					t.Fatal(err)
				}
				c.Storage.Path = f
			},
			expErrs: []string{"must be a directory"},
		},
		"sqlite path may not exist yet": {
			mutate: func(t *testing.T, c *Config) {
				c.Storage.Backend = BackendSQLite
				c.Storage.Path = filepath.Join(t.TempDir(), "new", "memory.db")
			},
		},
		"watch needs file backend": {
			mutate: func(t *testing.T, c *Config) {
				c.Storage.Backend = BackendSQLite
				c.Storage.Watch = true
			},
			expErrs: []string{"watch requires the file backend, got sqlite"},
		},
		"bad memory id": {
			mutate:  func(t *testing.T, c *Config) { c.Storage.MemoryID = "a.b" },
			expErrs: []string{"memory_id"},
		},
		"missing seed": {
			mutate:  func(t *testing.T, c *Config) { c.Storage.Seed = "/does/not/exist.yaml" },
			expErrs: []string{"invalid seed"},
		},
		"nats port": {
			mutate:  func(t *testing.T, c *Config) { c.Nats.Port = 70000 },
			expErrs: []string{"nats port 70000 out of range"},
		},
		"nats start timeout": {
			mutate:  func(t *testing.T, c *Config) { c.Nats.StartTimeout = "later" },
			expErrs: []string{"parsing nats start_timeout"},
		},
		"no handles": {
			mutate:  func(t *testing.T, c *Config) { c.World.Handles = nil },
			expErrs: []string{"world handles are required"},
		},
		"bad handles": {
			mutate:  func(t *testing.T, c *Config) { c.World.Handles = []string{"a.b", "12", "ok", "ok"} },
			expErrs: []string{"world handle 0", `"12" must not be numeric`, `"ok" listed twice`},
		},
		"request timeout": {
			mutate:  func(t *testing.T, c *Config) { c.World.RequestTimeout = "1 minute" },
			expErrs: []string{"parsing request_timeout"},
		},
		"errors collected": {
			mutate: func(t *testing.T, c *Config) {
				c.TickInterval = ""
				c.Storage.Path = ""
				c.World.Handles = nil
			},
			expErrs: []string{"tick_interval", "storage path", "world handles"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := validConfig(t)
			tt.mutate(t, &c)

			err := c.Validate()
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

func TestConfig_UnmarshalJSON(t *testing.T) {
	raw := `{
		"tick_interval": "500ms",
		"storage": {"backend": "sqlite", "path": "/var/lib/gridmem/memory.db", "memory_id": "bot"},
		"nats": {"host": "0.0.0.0", "port": 4222, "start_timeout": "3s"},
		"world": {"handles": ["alpha"], "position_mode": "readable", "request_timeout": "250ms"}
	}`

	var c Config
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "tick", c.tickInterval(), 500*time.Millisecond)
	testutil.AssertEqual(t, "backend", c.Storage.Backend, BackendSQLite)
	testutil.AssertEqual(t, "memory id", c.Storage.memoryID(), "bot")
	testutil.AssertEqual(t, "mode", c.World.PositionMode, grid.ModeReadable)
	testutil.AssertEqual(t, "port", c.Nats.Port, 4222)
}

func TestConfig_UnmarshalUnknownEnums(t *testing.T) {
	tests := map[string]struct {
		raw    string
		expErr string
	}{
		"backend": {raw: `{"storage": {"backend": "postgres"}}`, expErr: "unknown storage backend: postgres"},
		"mode":    {raw: `{"world": {"position_mode": "tiny"}}`, expErr: "unknown position mode: tiny"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var c Config
			err := json.Unmarshal([]byte(tt.raw), &c)
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestStorageConfig_Defaults(t *testing.T) {
	c := StorageConfig{}
	testutil.AssertEqual(t, "memory id", c.memoryID(), DefaultMemoryID)
	testutil.AssertEqual(t, "backend", c.Backend.String(), "file")

	if w := c.buildWatcher(nil); w != nil {
		t.Error("expected no watcher when watch is off")
	}

	seed, err := c.loadSeed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "no seed", seed.IsAbsent(), true)
}

func TestStorageConfig_LoadSeed(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(good, []byte("rooms:\n  - E3N6\n  - W1S1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("rooms: [E3N6\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := StorageConfig{Seed: good}
	v, err := c.loadSeed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "seed", v.String(), `{"rooms":["E3N6","W1S1"]}`)

	c.Seed = bad
	_, err = c.loadSeed()
	testutil.AssertErrorContains(t, err, "parsing seed")
}
