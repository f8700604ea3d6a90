package vfs

import (
	"errors"

	"github.com/shiroemons/go-hpivfs/pkg/hpi"
)

var (
	// ErrNotFound はネイティブディレクトリにもアーカイブにもパスが存在しない場合のエラー
	ErrNotFound = hpi.ErrNotFound

	// ErrMandatoryArchive は必須アーカイブを読み込めなかった場合のエラー
	ErrMandatoryArchive = errors.New("必須アーカイブを読み込めませんでした")

	// ErrUnknownSource は登録されていないアーカイブが指定された場合のエラー
	ErrUnknownSource = errors.New("登録されていない読み込み元です")

	// ErrInvalidSeek はシーク先が範囲外の場合のエラー
	ErrInvalidSeek = errors.New("シーク位置が範囲外です")

	// ErrClosed は閉じたファイルを操作した場合のエラー
	ErrClosed = errors.New("ファイルは既に閉じられています")
)
