package app

import "errors"

var (
	// ErrNoArguments は必要な引数が指定されていない場合のエラー
	ErrNoArguments = errors.New("対象のパスが指定されていません")

	// ErrLoadArchiveTable はアーカイブ一覧の読み込みに失敗した場合のエラー
	ErrLoadArchiveTable = errors.New("アーカイブ一覧の読み込みに失敗しました")

	// ErrNoMatch はパターンに一致するファイルがない場合のエラー
	ErrNoMatch = errors.New("一致するファイルがありません")

	// ErrSaveFile はファイルの保存に失敗した場合のエラー
	ErrSaveFile = errors.New("ファイルの保存に失敗しました")
)
