// Package vfs はネイティブディレクトリと複数のHPIアーカイブを1つのファイルシステムとして扱います。
//
// パスの検索はネイティブディレクトリを最優先し、次に登録順 (優先度順) にアーカイブを探します。
// 開いたファイルは常に全体がメモリ上に展開されます。
//
// 基本的な使い方:
//
//	fsys, err := vfs.New(vfs.Options{Root: "/games/totala"})
//	if err != nil {
//	    return err
//	}
//	defer fsys.Close()
//
//	f, err := fsys.Open("units/armcom.fbi", 0)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
// VFSは作成後は読み取り専用ですが、内部でロックは取りません。
// 複数のゴルーチンから使う場合は呼び出し側で同期してください。
package vfs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/golang-lru/arc/v2"

	"github.com/shiroemons/go-hpivfs/internal/fileutil"
	"github.com/shiroemons/go-hpivfs/internal/interfaces"
	"github.com/shiroemons/go-hpivfs/pkg/hpi"
)

// Native は OpenSpecific や FileInfo でネイティブディレクトリを表す読み込み元
const Native = ""

// Options はVFSの設定オプション
type Options struct {
	// Root はネイティブディレクトリ。空の場合は実行ファイルのディレクトリを使います。
	Root string

	// Archives は検索順に登録するアーカイブ。nil の場合は DefaultArchives を使います。
	Archives []ArchiveSpec

	// ScanExtension は Root 直下から追加で登録するアーカイブの拡張子。
	// 空の場合は DefaultScanExtension を使います。
	ScanExtension string

	// DisableScan を true にすると Root 直下の探索を行いません
	DisableScan bool

	// CacheSize はアーカイブから展開したファイルを保持する件数。0 の場合は保持しません。
	CacheSize int

	FileSystem interfaces.FileSystem
	Logger     interfaces.Logger
}

// VFS はネイティブディレクトリとアーカイブを重ね合わせたファイルシステム
type VFS struct {
	root     string
	fs       interfaces.FileSystem
	logger   interfaces.Logger
	archives []*hpi.Archive
	cache    *arc.ARCCache[string, []byte] // nil の場合は保持しない
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

// New は新しいVFSを作成します。
// 必須アーカイブのいずれかを読み込めない場合はエラーを返し、途中まで開いたアーカイブは閉じます。
func New(opts Options) (*VFS, error) {
	fs := opts.FileSystem
	if fs == nil {
		fs = fileutil.NewOSFileSystem()
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger{}
	}

	root := opts.Root
	if root == "" {
		dir, err := fileutil.ExecutableDir(fs)
		if err != nil {
			return nil, err
		}
		root = dir
	}

	specs := opts.Archives
	if specs == nil {
		specs = DefaultArchives()
	}
	ext := opts.ScanExtension
	if ext == "" {
		ext = DefaultScanExtension
	}

	v := &VFS{root: root, fs: fs, logger: logger}
	if opts.CacheSize > 0 {
		cache, err := arc.NewARC[string, []byte](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create file cache: %w", err)
		}
		v.cache = cache
	}

	success := false
	defer func() {
		if !success {
			v.Close()
		}
	}()

	for _, spec := range specs {
		if err := v.register(spec.Name); err != nil {
			if spec.Mandatory {
				return nil, fmt.Errorf("%w: %s: %w", ErrMandatoryArchive, spec.Name, err)
			}
			logger.Printf("任意アーカイブをスキップしました: %s: %v\n", spec.Name, err)
		}
	}

	if !opts.DisableScan {
		names, err := fileutil.FindArchives(fs, root, ext)
		if err != nil {
			logger.Printf("追加アーカイブの検索に失敗しました: %v\n", err)
		}
		for _, name := range names {
			if err := v.register(name); err != nil {
				logger.Printf("追加アーカイブをスキップしました: %s: %v\n", name, err)
			}
		}
	}

	success = true
	return v, nil
}

// register はアーカイブを検索順の末尾に追加します。登録済みの名前は無視します。
func (v *VFS) register(name string) error {
	if v.archive(name) != nil {
		v.logger.Printf("登録済みのアーカイブを無視しました: %s\n", name)
		return nil
	}

	file, err := v.fs.Open(filepath.Join(v.root, name))
	if err != nil {
		return err
	}
	archive, err := hpi.Open(name, file)
	if err != nil {
		return err
	}

	v.archives = append(v.archives, archive)
	v.logger.Printf("アーカイブを登録しました: %s\n", name)
	return nil
}

// archive は名前 (大文字小文字を区別しない) に一致する登録済みアーカイブを返します
func (v *VFS) archive(name string) *hpi.Archive {
	for _, a := range v.archives {
		if strings.EqualFold(a.Name(), name) {
			return a
		}
	}
	return nil
}

// Root はネイティブディレクトリを返します
func (v *VFS) Root() string {
	return v.root
}

// Archives は登録済みアーカイブの名前を優先度順に返します
func (v *VFS) Archives() []string {
	names := make([]string, len(v.archives))
	for i, a := range v.archives {
		names[i] = a.Name()
	}
	return names
}

// Close は全てのアーカイブを閉じます
func (v *VFS) Close() error {
	var errs []error
	for _, a := range v.archives {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	v.archives = nil
	if v.cache != nil {
		v.cache.Purge()
	}
	return errors.Join(errs...)
}
