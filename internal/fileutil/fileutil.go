// Package fileutil はファイル操作のユーティリティ関数を提供します
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/shiroemons/go-hpivfs/internal/interfaces"
)

// FromWindows1252 はWindows-1252のバイト列をUTF-8文字列に変換します。
// ASCIIのみの場合は変換しません。
func FromWindows1252(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	ret, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(ret)
}

// ExecutableDir は実行ファイルのあるディレクトリを返します
func ExecutableDir(fs interfaces.FileSystem) (string, error) {
	execPath, err := fs.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGetExecutablePath, err)
	}
	return filepath.Dir(execPath), nil
}

// FindArchives はディレクトリ直下から拡張子 ext のファイルを探し、名前順に返します。
// 拡張子の大文字小文字は区別しません。返す名前は dir からの相対パスです。
func FindArchives(fs interfaces.FileSystem, dir, ext string) ([]string, error) {
	files, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadDirectory, dir, err)
	}

	var names []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		if strings.EqualFold(filepath.Ext(name), ext) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// OutputPath は '/' 区切りのパスを出力ディレクトリ内のパスに変換します
func OutputPath(outDir, name string) string {
	return filepath.Join(outDir, filepath.FromSlash(name))
}

// WriteFile はファイルを書き出します。出力先のディレクトリは必要に応じて作成します。
func WriteFile(outputPath string, data []byte) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDirectory, err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFile, err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteContent, err)
	}
	return nil
}
