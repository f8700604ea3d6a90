// Package mocks はテスト用のモック実装を提供します
package mocks

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/shiroemons/go-hpivfs/internal/interfaces"
)

// MockFileSystem はテスト用のメモリ上のファイルシステム
//
// パスは '/' 区切りで扱います。Files に登録したファイルの親ディレクトリは
// 自動的に存在するものとみなします。
type MockFileSystem struct {
	Files     map[string][]byte
	Dirs      map[string]bool
	ExecPath  string
	Error     error // 設定すると全ての操作がこのエラーを返す
	OpenCount int   // 開いたままのファイル数
}

// NewMockFileSystem は新しいMockFileSystemを作成します
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:    make(map[string][]byte),
		Dirs:     make(map[string]bool),
		ExecPath: "/game/totala.exe",
	}
}

// Open はファイルを開きます
func (m *MockFileSystem) Open(name string) (interfaces.File, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	data, ok := m.Files[path.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	m.OpenCount++
	return &mockFile{Reader: bytes.NewReader(data), fs: m}, nil
}

// ReadFile はファイルを読み込みます
func (m *MockFileSystem) ReadFile(filename string) ([]byte, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	data, ok := m.Files[path.Clean(filename)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: filename, Err: fs.ErrNotExist}
	}
	return bytes.Clone(data), nil
}

// Stat はファイル情報を取得します
func (m *MockFileSystem) Stat(name string) (interfaces.FileInfo, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	name = path.Clean(name)
	if data, ok := m.Files[name]; ok {
		return &mockFileInfo{name: path.Base(name), size: int64(len(data))}, nil
	}
	if m.isDir(name) {
		return &mockFileInfo{name: path.Base(name), isDir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadDir はディレクトリ直下のエントリを名前順に返します
func (m *MockFileSystem) ReadDir(dirname string) ([]interfaces.DirEntry, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	dirname = path.Clean(dirname)
	if !m.isDir(dirname) {
		return nil, &fs.PathError{Op: "readdir", Path: dirname, Err: fs.ErrNotExist}
	}

	children := make(map[string]bool) // 名前 → ディレクトリか
	add := func(p string, isDir bool) {
		rest, ok := strings.CutPrefix(p, strings.TrimSuffix(dirname, "/")+"/")
		if !ok || rest == "" {
			return
		}
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			children[rest[:i]] = true
			return
		}
		children[rest] = children[rest] || isDir
	}
	for p := range m.Files {
		add(p, false)
	}
	for p := range m.Dirs {
		add(p, true)
	}

	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]interfaces.DirEntry, len(names))
	for i, name := range names {
		result[i] = &mockFileInfo{name: name, isDir: children[name]}
	}
	return result, nil
}

// Executable は実行ファイルのパスを返します
func (m *MockFileSystem) Executable() (string, error) {
	if m.Error != nil {
		return "", m.Error
	}
	if m.ExecPath == "" {
		return "", errors.New("executable path not set")
	}
	return m.ExecPath, nil
}

func (m *MockFileSystem) isDir(name string) bool {
	if name == "/" || m.Dirs[name] {
		return true
	}
	prefix := strings.TrimSuffix(name, "/") + "/"
	for p := range m.Files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for p := range m.Dirs {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

type mockFile struct {
	*bytes.Reader
	fs     *MockFileSystem
	closed bool
}

func (f *mockFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	f.fs.OpenCount--
	return nil
}

type mockFileInfo struct {
	name  string
	isDir bool
	size  int64
}

func (fi *mockFileInfo) Name() string { return fi.name }
func (fi *mockFileInfo) IsDir() bool  { return fi.isDir }
func (fi *mockFileInfo) Size() int64  { return fi.size }
