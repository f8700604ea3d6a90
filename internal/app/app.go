// Package app はhpifsコマンドのメインロジックを実装します
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shiroemons/go-hpivfs/internal/config"
	"github.com/shiroemons/go-hpivfs/internal/fileutil"
	"github.com/shiroemons/go-hpivfs/internal/interfaces"
	"github.com/shiroemons/go-hpivfs/pkg/hpi"
	"github.com/shiroemons/go-hpivfs/pkg/vfs"
)

// App はアプリケーションのメインロジックを管理します
type App struct {
	config *config.Config
	logger *config.DebugLogger
	fs     interfaces.FileSystem
	stdout io.Writer
	stderr io.Writer
}

// Options はAppの設定オプション
type Options struct {
	FileSystem interfaces.FileSystem
	Stdout     io.Writer
	Stderr     io.Writer // デバッグ出力の出力先
}

// New は新しいAppを作成します
func New(cfg *config.Config) *App {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions は新しいAppをオプション付きで作成します
func NewWithOptions(cfg *config.Config, opts Options) *App {
	fs := opts.FileSystem
	if fs == nil {
		fs = fileutil.NewOSFileSystem()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	var stderr io.Writer = os.Stderr
	if opts.Stderr != nil {
		stderr = opts.Stderr
	}
	// 抽出中はワーカーの結果とVFSの読み込みが同じ出力先に書きます
	stderr = &syncWriter{w: stderr}

	return &App{
		config: cfg,
		logger: config.NewDebugLoggerTo(cfg.DebugMode, stderr),
		fs:     fs,
		stdout: stdout,
		stderr: stderr,
	}
}

// Run はアプリケーションを実行します
func (a *App) Run(ctx context.Context) error {
	if a.config.Info {
		return a.runInfo(ctx)
	}

	fsys, err := a.openVFS()
	if err != nil {
		return err
	}
	defer fsys.Close()

	switch {
	case a.config.Cat:
		return a.runCat(ctx, fsys)
	case a.config.Extract:
		return a.runExtract(ctx, fsys)
	default:
		return a.runList(fsys)
	}
}

// openVFS は設定に従ってVFSを作成します
func (a *App) openVFS() (*vfs.VFS, error) {
	opts := vfs.Options{
		Root:       a.config.Root,
		CacheSize:  a.config.CacheSize,
		FileSystem: a.fs,
		Logger:     a.logger,
	}

	if a.config.ConfigFile != "" {
		table, err := config.LoadArchiveTable(a.fs, a.config.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadArchiveTable, err)
		}
		opts.Archives = table.Specs()
		opts.ScanExtension = table.ScanExtension
		a.logger.Printf("アーカイブ一覧を %s から読み込みました (%d 件)\n", a.config.ConfigFile, len(opts.Archives))
	}

	fsys, err := vfs.New(opts)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("ルート: %s\n", fsys.Root())
	for i, name := range fsys.Archives() {
		a.logger.Printf("  %2d: %s\n", i, name)
	}
	return fsys, nil
}

// runList はディレクトリの内容を表示します
func (a *App) runList(fsys *vfs.VFS) error {
	dir := ""
	if len(a.config.Args) > 0 {
		dir = a.config.Args[0]
	}

	it := fsys.Iterate(dir, a.config.Recursive)
	defer it.Close()

	count := it.Len()
	for fi := range it.All() {
		source := fi.Archive
		if source == vfs.Native {
			source = "(native)"
		}
		if fi.IsDir {
			fmt.Fprintf(a.stdout, "%-40s %10s  %s\n", fi.Path+"/", "<DIR>", source)
		} else {
			fmt.Fprintf(a.stdout, "%-40s %10d  %s\n", fi.Path, fi.Size, source)
		}
	}
	a.logger.Printf("%d 件のエントリ\n", count)
	return nil
}

// runCat はファイルの内容を標準出力に書き出します
func (a *App) runCat(ctx context.Context, fsys *vfs.VFS) error {
	if len(a.config.Args) == 0 {
		return ErrNoArguments
	}
	for _, p := range a.config.Args {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := fsys.Open(p, 0)
		if err != nil {
			return err
		}
		_, err = io.Copy(a.stdout, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// runInfo はアーカイブのヘッダとディレクトリツリーを表示します
func (a *App) runInfo(ctx context.Context) error {
	if len(a.config.Args) == 0 {
		return ErrNoArguments
	}
	for _, p := range a.config.Args {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.printInfo(p); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) printInfo(p string) error {
	file, err := a.fs.Open(p)
	if err != nil {
		return err
	}
	archive, err := hpi.Open(p, file)
	if err != nil {
		return err
	}
	defer archive.Close()

	h := archive.Header()
	fmt.Fprintf(a.stdout, "アーカイブ: %s\n", p)
	fmt.Fprintf(a.stdout, "セーブマーカー: 0x%08x\n", h.SaveMarker)
	fmt.Fprintf(a.stdout, "ディレクトリ: 0x%08x - 0x%08x (%d バイト)\n", h.Start, h.DirectorySize, h.DirectoryLength())
	fmt.Fprintf(a.stdout, "暗号化: %v (シード 0x%08x)\n", h.Seed != 0, h.Seed)

	files := 0
	var total uint64
	err = archive.Walk(func(path string, e hpi.DirEntry) error {
		depth := strings.Count(path, "/")
		indent := strings.Repeat("  ", depth)
		if e.IsDir {
			fmt.Fprintf(a.stdout, "%s%s/\n", indent, e.Name)
			return nil
		}
		fmt.Fprintf(a.stdout, "%s%s (%d バイト, %s)\n", indent, e.Name, e.Size, compressionName(e.Compression))
		files++
		total += uint64(e.Size)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%d 個のファイル, 合計 %d バイト\n\n", files, total)
	return nil
}

func compressionName(c uint8) string {
	switch c {
	case hpi.CompressionNone:
		return "無圧縮"
	case hpi.CompressionLZ77:
		return "LZ77"
	case hpi.CompressionZlib:
		return "zlib"
	default:
		return fmt.Sprintf("不明 (%d)", c)
	}
}
