package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "デフォルト値",
			args: nil,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Root != "" || cfg.OutputDir != "." || cfg.Workers != 4 || cfg.CacheSize != 64 {
					t.Errorf("unexpected defaults: %+v", cfg)
				}
				if cfg.List || cfg.Extract || cfg.Cat || cfg.Info || cfg.DebugMode {
					t.Errorf("mode flags should be false by default: %+v", cfg)
				}
			},
		},
		{
			name: "短いフラグ",
			args: []string{"-r", "/games/ta", "-c", "archives.yaml", "-x", "-o", "/tmp/out", "-w", "8", "-d", "units/*.fbi"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Root != "/games/ta" {
					t.Errorf("Root = %q", cfg.Root)
				}
				if cfg.ConfigFile != "archives.yaml" {
					t.Errorf("ConfigFile = %q", cfg.ConfigFile)
				}
				if !cfg.Extract || !cfg.DebugMode {
					t.Errorf("Extract = %v, DebugMode = %v", cfg.Extract, cfg.DebugMode)
				}
				if cfg.OutputDir != "/tmp/out" || cfg.Workers != 8 {
					t.Errorf("OutputDir = %q, Workers = %d", cfg.OutputDir, cfg.Workers)
				}
				if len(cfg.Args) != 1 || cfg.Args[0] != "units/*.fbi" {
					t.Errorf("Args = %v", cfg.Args)
				}
			},
		},
		{
			name: "長いフラグ",
			args: []string{"--list", "--recursive", "--root=/games/ta", "--cache", "0", "units"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.List || !cfg.Recursive {
					t.Errorf("List = %v, Recursive = %v", cfg.List, cfg.Recursive)
				}
				if cfg.Root != "/games/ta" || cfg.CacheSize != 0 {
					t.Errorf("Root = %q, CacheSize = %d", cfg.Root, cfg.CacheSize)
				}
				if len(cfg.Args) != 1 || cfg.Args[0] != "units" {
					t.Errorf("Args = %v", cfg.Args)
				}
			},
		},
		{
			name: "catとinfo",
			args: []string{"--cat", "--info", "-v"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Cat || !cfg.Info || !cfg.ShowVersion {
					t.Errorf("Cat = %v, Info = %v, ShowVersion = %v", cfg.Cat, cfg.Info, cfg.ShowVersion)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg, err := ParseFlags(tt.args, &out)
			if err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	var out bytes.Buffer
	if _, err := ParseFlags([]string{"--unknown"}, &out); err == nil {
		t.Error("ParseFlags() should fail for an unknown flag")
	}

	out.Reset()
	_, err := ParseFlags([]string{"--help"}, &out)
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("ParseFlags(--help) error = %v, want pflag.ErrHelp", err)
	}
	if !strings.Contains(out.String(), "使用方法") {
		t.Errorf("usage output = %q", out.String())
	}
}

func TestDebugLogger(t *testing.T) {
	var buf bytes.Buffer

	// デバッグモード有効
	logger := NewDebugLoggerTo(true, &buf)
	logger.Printf("test message %d\n", 123)
	if !strings.Contains(buf.String(), "test message 123") {
		t.Errorf("Expected debug output to contain 'test message 123', got '%s'", buf.String())
	}

	// デバッグモード無効
	buf.Reset()
	logger = NewDebugLoggerTo(false, &buf)
	logger.Printf("should not appear\n")
	if buf.Len() != 0 {
		t.Error("Debug output should not appear when debug mode is disabled")
	}
}
