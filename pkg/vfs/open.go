package vfs

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shiroemons/go-hpivfs/pkg/hpi"
)

// OpenFlag はファイルを開くときのオプション
type OpenFlag int

const (
	// OpenTerminated を指定するとデータの末尾に0バイトを1つ追加します。
	// 追加したバイトは Size には含まれません。
	OpenTerminated OpenFlag = 1 << iota
)

// Open はパスのファイルを開きます。
// ネイティブディレクトリを最初に探し、次に登録順にアーカイブを探します。
func (v *VFS) Open(path string, flags OpenFlag) (*File, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	if f, err := v.openNative(segs, flags); err == nil {
		return f, nil
	}
	for _, a := range v.archives {
		f, err := v.openArchive(a, segs, flags)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// OpenSpecific は読み込み元を指定してファイルを開きます。
// source が Native の場合はネイティブディレクトリだけを探します。
func (v *VFS) OpenSpecific(source, path string, flags OpenFlag) (*File, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	if source == Native {
		f, err := v.openNative(segs, flags)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		return f, nil
	}

	a := v.archive(source)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return v.openArchive(a, segs, flags)
}

// ReadFile はパスのファイル全体を返します
func (v *VFS) ReadFile(path string) ([]byte, error) {
	f, err := v.Open(path, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Bytes(), nil
}

// Exists はパスのファイルがいずれかの読み込み元に存在するか返します
func (v *VFS) Exists(path string) bool {
	segs, err := splitPath(path)
	if err != nil {
		return false
	}
	if info, err := v.fs.Stat(v.nativePath(segs)); err == nil && !info.IsDir() {
		return true
	}
	name := strings.Join(segs, "/")
	for _, a := range v.archives {
		if _, err := a.Lookup(name); err == nil {
			return true
		}
	}
	return false
}

func (v *VFS) openNative(segs []string, flags OpenFlag) (*File, error) {
	data, err := v.fs.ReadFile(v.nativePath(segs))
	if err != nil {
		return nil, err
	}
	size := len(data)
	if flags&OpenTerminated != 0 {
		data = append(data, 0)
	}
	v.logger.Printf("ネイティブファイルを開きました: %s\n", strings.Join(segs, "/"))
	return newFile(strings.Join(segs, "/"), Native, data, size), nil
}

func (v *VFS) openArchive(a *hpi.Archive, segs []string, flags OpenFlag) (*File, error) {
	name := strings.Join(segs, "/")
	entry, err := a.Lookup(name)
	if err != nil {
		return nil, err
	}

	if entry.Size > hpi.MaxFileSize {
		return nil, fmt.Errorf("%w: %s: %s: %d bytes", hpi.ErrOutOfMemory, a.Name(), name, entry.Size)
	}

	size := int(entry.Size)
	buf := make([]byte, size, size+1)
	key := cacheKey(a.Name(), name)
	if cached, ok := v.cacheGet(key); ok && len(cached) == size {
		copy(buf, cached)
	} else {
		if err := a.Extract(entry, buf); err != nil {
			return nil, err
		}
		v.cacheAdd(key, buf)
	}
	if flags&OpenTerminated != 0 {
		buf = append(buf, 0)
	}
	v.logger.Printf("アーカイブからファイルを開きました: %s: %s\n", a.Name(), name)
	return newFile(name, a.Name(), buf, size), nil
}

// cacheKey はアーカイブ名とパスからキャッシュのキーを作ります
func cacheKey(source, name string) string {
	return strings.ToLower(source) + "\x00" + strings.ToLower(name)
}

func (v *VFS) cacheGet(key string) ([]byte, bool) {
	if v.cache == nil {
		return nil, false
	}
	return v.cache.Get(key)
}

// cacheAdd は展開済みのデータの複製を保持します
func (v *VFS) cacheAdd(key string, data []byte) {
	if v.cache == nil {
		return
	}
	v.cache.Add(key, bytes.Clone(data))
}

func (v *VFS) nativePath(segs []string) string {
	return filepath.Join(append([]string{v.root}, segs...)...)
}

// splitPath はパスを要素に分けます。ルートの外を指す ".." は受け付けません。
func splitPath(p string) ([]string, error) {
	segs := hpi.SplitPath(p)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	for _, s := range segs {
		if s == ".." {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
	}
	return segs, nil
}
