package hpi

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound はパスがアーカイブ内に存在しない場合のエラー
	ErrNotFound = errors.New("ファイルが見つかりません")

	// ErrInvalidArchive はマジックナンバー不一致やヘッダが短い場合のエラー
	ErrInvalidArchive = errors.New("無効なアーカイブファイルです")

	// ErrCorruptDirectory はディレクトリの読み込みや再配置に失敗した場合のエラー
	ErrCorruptDirectory = errors.New("ディレクトリが壊れています")

	// ErrChecksumMismatch はチャンクのチェックサムが一致しない場合のエラー
	ErrChecksumMismatch = errors.New("チェックサムが一致しません")

	// ErrUnsupportedCompression は未対応の圧縮形式の場合のエラー
	ErrUnsupportedCompression = errors.New("サポートされていない圧縮形式です")

	// ErrOutOfMemory は展開サイズが上限を超える場合のエラー
	ErrOutOfMemory = errors.New("展開サイズが大きすぎます")

	// ErrTruncated はレコード全体を読み込めなかった場合のエラー
	ErrTruncated = errors.New("データが途中で切れています")

	// ErrCorruptChunk はチャンクの構造や展開結果が不正な場合のエラー
	ErrCorruptChunk = errors.New("チャンクが壊れています")
)

// ArchiveError はアーカイブ関連のエラー
type ArchiveError struct {
	Op   string // 実行していた操作
	Path string // アーカイブまたはファイルのパス
	Err  error  // 元のエラー
}

// Error はエラーメッセージを返します
func (e *ArchiveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap は元のエラーを返します
func (e *ArchiveError) Unwrap() error {
	return e.Err
}

func newArchiveError(op, path string, err error) *ArchiveError {
	return &ArchiveError{Op: op, Path: path, Err: err}
}
