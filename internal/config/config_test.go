package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

func TestLoadMissingDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Driver != DriverFile || cfg.Server.Addr != ":8080" || cfg.LogLevel() != log.InfoLevel {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadMissingNamed(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() of a missing named file should fail")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keygraph.toml")
	data := `
[log]
level = "debug"

[store]
driver = "redis"

  [store.redis]
  url = "redis://cache:6379/2"
  read_timeout = "2s"

[serializer]
filter = 'Type != "Settings"'

[server]
addr = "127.0.0.1:9000"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("level = %v", cfg.LogLevel())
	}
	if cfg.Store.Driver != DriverRedis || cfg.Store.Redis.URL != "redis://cache:6379/2" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Redis.ReadTimeout != 2*time.Second {
		t.Errorf("read_timeout = %v", cfg.Store.Redis.ReadTimeout)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	opts, err := cfg.SerializerOptions(log.New(os.Stderr))
	if err != nil || len(opts) != 2 {
		t.Errorf("SerializerOptions() = %d options, %v", len(opts), err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[store`},
		{"unknown key", "[store]\ndriver = \"file\"\ncolour = \"red\""},
		{"unknown driver", "[store]\ndriver = \"floppy\""},
		{"bad level", "[log]\nlevel = \"loud\""},
		{"bad filter", "[serializer]\nfilter = \"Name +\""},
		{"non-bool filter", "[serializer]\nfilter = \"Name\""},
		{"empty addr", "[server]\naddr = \"\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
				t.Errorf("Parse() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := log.New(os.Stderr)
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  StoreConfig
	}{
		{"memory", StoreConfig{Driver: DriverMemory}},
		{"file", StoreConfig{Driver: DriverFile, File: FileConfig{Dir: t.TempDir()}}},
		{"sqlite", StoreConfig{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "docs.db")}}},
		{"redis", StoreConfig{Driver: DriverRedis, Redis: RedisConfig{URL: "redis://" + mr.Addr()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.cfg.OpenStore(ctx, logger)
			if err != nil {
				t.Fatalf("OpenStore() error = %v", err)
			}
			defer s.Close()
			if err := s.Put(ctx, "prod.xml", []byte("<x/>")); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, "prod.xml")
			if err != nil || string(got) != "<x/>" {
				t.Errorf("Get() = %q, %v", got, err)
			}
		})
	}

	if _, err := (StoreConfig{Driver: DriverMongo}).OpenStore(ctx, logger); err == nil {
		t.Error("mongo without uri should fail")
	}
	if _, err := (StoreConfig{Driver: "tape"}).OpenStore(ctx, logger); !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
		t.Errorf("unknown driver error = %v", err)
	}
}
