package config

import "testing"

func TestParsePolicy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"FIFO", FIFO, false},
		{"fifo", FIFO, false},
		{"SFF", SFF, false},
		{"sff", SFF, false},
		{"round-robin", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePolicy(%q): expected an error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy(%q): unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestServerConfigValidate(t *testing.T) {
	t.Parallel()
	base := ServerConfig{DocumentRoot: ".", Port: 10000, Workers: 4, QueueCapacity: 4, Policy: FIFO}

	tests := []struct {
		name    string
		mutate  func(c ServerConfig) ServerConfig
		wantErr bool
	}{
		{"valid", func(c ServerConfig) ServerConfig { return c }, false},
		{"zero workers", func(c ServerConfig) ServerConfig { c.Workers = 0; return c }, true},
		{"too many workers", func(c ServerConfig) ServerConfig { c.Workers = 101; return c }, true},
		{"zero buffers", func(c ServerConfig) ServerConfig { c.QueueCapacity = 0; return c }, true},
		{"too many buffers", func(c ServerConfig) ServerConfig { c.QueueCapacity = 101; return c }, true},
		{"port zero", func(c ServerConfig) ServerConfig { c.Port = 0; return c }, true},
		{"port too large", func(c ServerConfig) ServerConfig { c.Port = 70000; return c }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(base).Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
