package config

import (
	"testing"
	"time"
)

func TestConfig_LoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost/aishop")
	t.Setenv("SEPAY_API_KEY", "key")

	c := New()
	if err := c.Load(nil); err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Server.Listen != "localhost:8088" {
		t.Errorf("unexpected listen address %q", c.Server.Listen)
	}
	if c.Reconcile.Timeout != 10*time.Second {
		t.Errorf("unexpected reconcile timeout %s", c.Reconcile.Timeout)
	}
	if c.Gateway.APIKey != "key" {
		t.Errorf("unexpected api key %q", c.Gateway.APIKey)
	}
	if c.Notify.Driver != NotifyLog || c.Notify.Workers != 4 {
		t.Errorf("unexpected notify config %+v", c.Notify)
	}
}

func TestConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("RUN_ADDRESS", "localhost:1")

	c := New()
	if err := c.Load([]string{"-a", ":9000", "--storage", "memory"}); err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Server.Listen != ":9000" {
		t.Errorf("expected flag to win, got %q", c.Server.Listen)
	}
	if c.Database.Storage != StorageMemory {
		t.Errorf("expected memory storage, got %q", c.Database.Storage)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "postgres without dsn",
			cfg:     Config{Database: DatabaseConfig{Storage: StoragePostgres}, Notify: NotifyConfig{Driver: NotifyLog}},
			wantErr: true,
		},
		{
			name: "memory",
			cfg:  Config{Database: DatabaseConfig{Storage: StorageMemory}, Notify: NotifyConfig{Driver: NotifyRedis}},
		},
		{
			name:    "unknown storage",
			cfg:     Config{Database: DatabaseConfig{Storage: "sqlite"}, Notify: NotifyConfig{Driver: NotifyLog}},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Database: DatabaseConfig{Storage: StorageMemory}, Notify: NotifyConfig{Driver: "kafka"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
