package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shiroemons/go-hpivfs/internal/config"
	"github.com/shiroemons/go-hpivfs/internal/hpitest"
	"github.com/shiroemons/go-hpivfs/internal/mocks"
	"github.com/shiroemons/go-hpivfs/pkg/vfs"
)

func newTestFS() *mocks.MockFileSystem {
	fs := mocks.NewMockFileSystem()
	fs.Files["/game/units/armcom.fbi"] = []byte("native armcom")
	fs.Files["/game/base.hpi"] = hpitest.NewBuilder(0x77).
		AddFile("units/armcom.fbi", []byte("packed armcom"), hpitest.Stored, false).
		AddFile("units/armsolar.fbi", []byte("packed armsolar"), hpitest.LZ77, true).
		AddFile("anims/armcom.gaf", bytes.Repeat([]byte("gaf"), 1000), hpitest.Zlib, false).
		Bytes()
	fs.Files["/game/archives.yaml"] = []byte("archives:\n  - name: base.hpi\n    mandatory: true\n")
	return fs
}

func newTestApp(cfg *config.Config, fs *mocks.MockFileSystem) (*App, *bytes.Buffer, *bytes.Buffer) {
	if cfg.Root == "" {
		cfg.Root = "/game"
	}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = "/game/archives.yaml"
	}
	var stdout, stderr bytes.Buffer
	app := NewWithOptions(cfg, Options{FileSystem: fs, Stdout: &stdout, Stderr: &stderr})
	return app, &stdout, &stderr
}

func TestApp_RunList(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    []string
		notWant []string
	}{
		{
			name:    "ディレクトリ直下",
			cfg:     &config.Config{List: true, Args: []string{"units"}},
			want:    []string{"units/armcom.fbi", "(native)", "units/armsolar.fbi", "base.hpi"},
			notWant: []string{"anims/armcom.gaf"},
		},
		{
			name: "再帰",
			cfg:  &config.Config{List: true, Recursive: true},
			want: []string{"units/", "anims/", "anims/armcom.gaf", "3000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stdout, _ := newTestApp(tt.cfg, newTestFS())
			if err := app.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			out := stdout.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output should contain %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestApp_RunCat(t *testing.T) {
	cfg := &config.Config{Cat: true, Args: []string{"units/armcom.fbi", "UNITS/ARMSOLAR.FBI"}}
	app, stdout, _ := newTestApp(cfg, newTestFS())
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := stdout.String(); got != "native armcompacked armsolar" {
		t.Errorf("output = %q", got)
	}

	cfg = &config.Config{Cat: true, Args: []string{"missing.txt"}}
	app, _, _ = newTestApp(cfg, newTestFS())
	if err := app.Run(context.Background()); !errors.Is(err, vfs.ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}

	cfg = &config.Config{Cat: true}
	app, _, _ = newTestApp(cfg, newTestFS())
	if err := app.Run(context.Background()); !errors.Is(err, ErrNoArguments) {
		t.Errorf("Run() error = %v, want ErrNoArguments", err)
	}
}

func TestApp_RunExtract(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr error
	}{
		{
			name: "パターン指定",
			args: []string{"units/*.fbi"},
			want: map[string]string{
				"units/armcom.fbi":   "native armcom",
				"units/armsolar.fbi": "packed armsolar",
			},
		},
		{
			name: "重複したパターン",
			args: []string{"units/armcom.fbi", "UNITS/*"},
			want: map[string]string{
				"units/armcom.fbi":   "native armcom",
				"units/armsolar.fbi": "packed armsolar",
			},
		},
		{
			name: "全ファイル",
			want: map[string]string{
				"units/armcom.fbi":   "native armcom",
				"units/armsolar.fbi": "packed armsolar",
				"anims/armcom.gaf":   strings.Repeat("gaf", 1000),
				"archives.yaml":      "archives:\n  - name: base.hpi\n    mandatory: true\n",
			},
		},
		{
			name:    "一致なし",
			args:    []string{"*.tnt"},
			wantErr: ErrNoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			cfg := &config.Config{Extract: true, OutputDir: outDir, Workers: 2, Args: tt.args}
			app, stdout, _ := newTestApp(cfg, newTestFS())

			err := app.Run(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			for name, content := range tt.want {
				data, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(name)))
				if err != nil {
					t.Errorf("%s was not extracted: %v", name, err)
					continue
				}
				if string(data) != content {
					t.Errorf("%s content = %q, want %q", name, data, content)
				}
			}
			if !strings.Contains(stdout.String(), "個のファイルを抽出しました") {
				t.Errorf("output = %q", stdout.String())
			}
		})
	}
}

func TestApp_RunExtract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{Extract: true, OutputDir: t.TempDir()}
	app, _, _ := newTestApp(cfg, newTestFS())
	if err := app.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestApp_RunInfo(t *testing.T) {
	cfg := &config.Config{Info: true, Args: []string{"/game/base.hpi"}}
	app, stdout, _ := newTestApp(cfg, newTestFS())
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := stdout.String()
	for _, s := range []string{
		"アーカイブ: /game/base.hpi",
		"シード 0x00000077",
		"units/",
		"  armsolar.fbi (15 バイト, LZ77)",
		"  armcom.gaf (3000 バイト, zlib)",
		"3 個のファイル",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output should contain %q:\n%s", s, out)
		}
	}

	cfg = &config.Config{Info: true, Args: []string{"/game/units/armcom.fbi"}}
	app, _, _ = newTestApp(cfg, newTestFS())
	if err := app.Run(context.Background()); err == nil {
		t.Error("Run() should fail for a file that is not an archive")
	}
}

func TestApp_ArchiveTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(fs *mocks.MockFileSystem)
		wantErr error
	}{
		{
			name:    "設定ファイルが存在しない",
			setup:   func(fs *mocks.MockFileSystem) { delete(fs.Files, "/game/archives.yaml") },
			wantErr: ErrLoadArchiveTable,
		},
		{
			name:    "名前のないアーカイブ",
			setup:   func(fs *mocks.MockFileSystem) { fs.Files["/game/archives.yaml"] = []byte("archives:\n  - mandatory: true\n") },
			wantErr: config.ErrEmptyArchiveName,
		},
		{
			name: "必須アーカイブが存在しない",
			setup: func(fs *mocks.MockFileSystem) {
				fs.Files["/game/archives.yaml"] = []byte("archives:\n  - name: missing.hpi\n    mandatory: true\n")
			},
			wantErr: vfs.ErrMandatoryArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newTestFS()
			tt.setup(fs)
			app, _, _ := newTestApp(&config.Config{List: true}, fs)
			if err := app.Run(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApp_DebugLog(t *testing.T) {
	cfg := &config.Config{List: true, DebugMode: true}
	app, _, stderr := newTestApp(cfg, newTestFS())
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "アーカイブを登録しました: base.hpi") {
		t.Errorf("debug output = %q", stderr.String())
	}
}

func TestApp_RunExtract_DebugLog(t *testing.T) {
	const files = 32
	b := hpitest.NewBuilder(0x31)
	for i := 0; i < files; i++ {
		b.AddFile(fmt.Sprintf("data/file%02d.txt", i), bytes.Repeat([]byte{byte('a' + i%26)}, 100*i), hpitest.Compression(i%3), i%2 == 0)
	}
	b.AddFile("data/huge.bin", []byte("huge"), hpitest.Stored, false).SetSize("data/huge.bin", 0xFFFFFFF0)

	fs := newTestFS()
	fs.Files["/game/base.hpi"] = b.Bytes()

	cfg := &config.Config{Extract: true, OutputDir: t.TempDir(), Workers: 4, DebugMode: true, Args: []string{"data/*"}}
	app, stdout, stderr := newTestApp(cfg, fs)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// ワーカーの結果と読み込みの警告が同じ出力先に混ざらずに書かれる
	lines := strings.Split(strings.TrimSuffix(stderr.String(), "\n"), "\n")
	extracted, warned := 0, 0
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "抽出: data/file"):
			extracted++
		case strings.HasPrefix(line, "警告: data/huge.bin を開けませんでした"):
			warned++
		}
	}
	if extracted != files {
		t.Errorf("extracted lines = %d, want %d\n%s", extracted, files, stderr.String())
	}
	if warned != 1 {
		t.Errorf("warning lines = %d, want 1\n%s", warned, stderr.String())
	}
	if want := fmt.Sprintf("%d 個のファイルを抽出しました", files); !strings.Contains(stdout.String(), want) {
		t.Errorf("output = %q, want %q", stdout.String(), want)
	}
}
