package vfs

import (
	"iter"
	"path"
	"path/filepath"
	"strings"

	"github.com/shiroemons/go-hpivfs/pkg/hpi"
)

// FileInfo は Iterate が返すエントリ1件
type FileInfo struct {
	Path    string // VFS のルートからのパス ('/' 区切り)
	Archive string // 読み込み元のアーカイブ名。ネイティブの場合は Native
	IsDir   bool
	Size    int64 // ファイルの場合のみ
}

// Name はパスの最後の要素を返します
func (fi FileInfo) Name() string {
	return path.Base(fi.Path)
}

// Iterator はディレクトリの内容を順に返します。
// 内容は Iterate を呼んだ時点で確定します。
type Iterator struct {
	items []FileInfo
	pos   int
}

// Next は次のエントリを返します。終端に達すると false を返します。
func (it *Iterator) Next() (FileInfo, bool) {
	if it.pos >= len(it.items) {
		return FileInfo{}, false
	}
	fi := it.items[it.pos]
	it.pos++
	return fi, true
}

// Len はまだ返していないエントリ数を返します
func (it *Iterator) Len() int {
	return len(it.items) - it.pos
}

// All は残りのエントリを順に返すイテレータを返します
func (it *Iterator) All() iter.Seq[FileInfo] {
	return func(yield func(FileInfo) bool) {
		for {
			fi, ok := it.Next()
			if !ok || !yield(fi) {
				return
			}
		}
	}
}

// Close は保持しているエントリを解放します
func (it *Iterator) Close() {
	it.items = nil
	it.pos = 0
}

// Iterate はディレクトリの内容をネイティブ、アーカイブの優先度順に列挙します。
//
// 同じパス (大文字小文字を区別しない) のエントリは最初に見つかったものだけを返します。
// recursive が true の場合はサブディレクトリも列挙し、ディレクトリは全ての読み込み元でたどります。
func (v *VFS) Iterate(dir string, recursive bool) *Iterator {
	m := merger{seen: make(map[string]bool)}
	segs := hpi.SplitPath(dir)
	for _, s := range segs {
		if s == ".." {
			return &Iterator{}
		}
	}
	prefix := strings.Join(segs, "/")

	v.walkNative(prefix, recursive, &m)
	for _, a := range v.archives {
		walkArchive(a, prefix, recursive, &m)
	}
	return &Iterator{items: m.items}
}

// Glob はパターンに一致するファイルを全ての読み込み元から探します。
// パターンは path.Match の書式で、大文字小文字を区別しません。
func (v *VFS) Glob(pattern string) ([]FileInfo, error) {
	pattern = strings.ToLower(hpi.CleanPath(pattern))
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}

	it := v.Iterate("", true)
	defer it.Close()

	var matches []FileInfo
	for fi := range it.All() {
		if fi.IsDir {
			continue
		}
		if ok, _ := path.Match(pattern, strings.ToLower(fi.Path)); ok {
			matches = append(matches, fi)
		}
	}
	return matches, nil
}

type merger struct {
	seen  map[string]bool
	items []FileInfo
}

func (m *merger) add(fi FileInfo) {
	key := strings.ToLower(fi.Path)
	if m.seen[key] {
		return
	}
	m.seen[key] = true
	m.items = append(m.items, fi)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (v *VFS) walkNative(dir string, recursive bool, m *merger) {
	full := filepath.Join(v.root, filepath.FromSlash(dir))
	entries, err := v.fs.ReadDir(full)
	if err != nil {
		return
	}
	for _, e := range entries {
		fi := FileInfo{Path: joinPath(dir, e.Name()), Archive: Native, IsDir: e.IsDir()}
		if !fi.IsDir {
			if info, err := v.fs.Stat(filepath.Join(full, e.Name())); err == nil {
				fi.Size = info.Size()
			}
		}
		m.add(fi)
		if fi.IsDir && recursive {
			v.walkNative(fi.Path, recursive, m)
		}
	}
}

func walkArchive(a *hpi.Archive, dir string, recursive bool, m *merger) {
	entries, err := a.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		fi := FileInfo{Path: joinPath(dir, e.Name), Archive: a.Name(), IsDir: e.IsDir, Size: int64(e.Size)}
		m.add(fi)
		if fi.IsDir && recursive {
			walkArchive(a, fi.Path, recursive, m)
		}
	}
}
