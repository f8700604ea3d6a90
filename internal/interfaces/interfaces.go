// Package interfaces はhpivfsで使用するインターフェースを定義します
package interfaces

import "io"

// FileSystem はネイティブファイルシステム操作のインターフェース
type FileSystem interface {
	Open(name string) (File, error)
	ReadFile(name string) ([]byte, error)
	Stat(name string) (FileInfo, error)
	ReadDir(dirname string) ([]DirEntry, error)
	Executable() (string, error)
}

// File はランダムアクセス可能な開いたファイル
type File interface {
	io.ReaderAt
	io.Closer
}

// FileInfo はファイル情報のインターフェース
type FileInfo interface {
	Name() string
	IsDir() bool
	Size() int64
}

// DirEntry はディレクトリエントリのインターフェース
type DirEntry interface {
	Name() string
	IsDir() bool
}

// Logger はログ出力のインターフェース
type Logger interface {
	Printf(format string, a ...any)
}
