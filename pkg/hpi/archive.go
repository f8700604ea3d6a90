// Package hpi はHPIアーカイブファイル (.hpi, .ufo, .ccx, .gp3) を読み込むためのパッケージです。
//
// アーカイブを開くとディレクトリブロック全体を復号し、ファイル上の位置で書かれた
// オフセットをブロック内の位置に書き換えます (再配置)。以降の検索はメモリ上だけで行います。
//
// 基本的な使い方:
//
//	archive, err := hpi.OpenFile("totala1.hpi")
//	if err != nil {
//	    return err
//	}
//	defer archive.Close()
//
//	entry, err := archive.Lookup("units/armcom.fbi")
//	if err != nil {
//	    return err
//	}
//	data, err := archive.ReadFile(entry)
package hpi

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shiroemons/go-hpivfs/pkg/crypto"
)

// MaxFileSize は1ファイルあたりの展開後サイズの上限
const MaxFileSize = 1 << 30

// ファイルヘッダの圧縮形式
const (
	CompressionNone = 0
	CompressionLZ77 = 1
	CompressionZlib = 2
)

// ReaderAtCloser はアーカイブの読み込み元
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// FileEntry はアーカイブ内のファイル1件
type FileEntry struct {
	Path        string
	Offset      uint32 // ファイル上のデータ位置
	Size        uint32 // 展開後のサイズ
	Compression uint8
}

// DirEntry はディレクトリ内のエントリ1件
type DirEntry struct {
	Name        string
	IsDir       bool
	Size        uint32 // ファイルの場合のみ
	Compression uint8  // ファイルの場合のみ
}

// Archive は開いたHPIアーカイブを表します
type Archive struct {
	name   string
	r      ReaderAtCloser
	header Header
	key    uint32
	dir    directory
}

// OpenFile はOSのファイルシステムからアーカイブを開きます
func OpenFile(filename string) (*Archive, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, newArchiveError("open", filename, err)
	}
	return Open(filename, file)
}

// Open は r からアーカイブを読み込みます。
// 成功した場合 r は Archive が所有し、Close で閉じられます。失敗した場合はその場で閉じます。
func Open(name string, r ReaderAtCloser) (*Archive, error) {
	success := false
	defer func() {
		if !success {
			r.Close()
		}
	}()

	header, err := readHeader(r)
	if err != nil {
		return nil, newArchiveError("open", name, err)
	}

	length := header.DirectoryLength()
	if length < dirHeaderSize {
		return nil, newArchiveError("open", name, fmt.Errorf("%w: directory size %d (start 0x%x, end 0x%x)", ErrCorruptDirectory, length, header.Start, header.DirectorySize))
	}
	if length > MaxFileSize {
		return nil, newArchiveError("open", name, fmt.Errorf("%w: directory size %d", ErrOutOfMemory, length))
	}

	a := &Archive{
		name:   name,
		r:      r,
		header: header,
		key:    crypto.ArchiveKey(header.Seed),
	}

	buf, err := a.readAt(int64(header.Start), int(length))
	if err != nil {
		return nil, newArchiveError("open", name, err)
	}
	a.dir = directory{buf: buf}
	if err := a.dir.rebase(header.Start); err != nil {
		return nil, newArchiveError("open", name, err)
	}

	success = true
	return a, nil
}

// Close はアーカイブファイルを閉じます
func (a *Archive) Close() error {
	a.dir.buf = nil
	return a.r.Close()
}

// Name はアーカイブを開いたときの名前を返します
func (a *Archive) Name() string {
	return a.name
}

// Header はアーカイブのヘッダを返します
func (a *Archive) Header() Header {
	return a.header
}

// Lookup はパスに一致するファイルを探します。大文字小文字は区別しません。
func (a *Archive) Lookup(path string) (FileEntry, error) {
	e, ok := a.dir.lookup(SplitPath(path))
	if !ok {
		return FileEntry{}, newArchiveError("lookup", path, ErrNotFound)
	}
	offset, size, compression := a.dir.fileHeader(e)
	return FileEntry{
		Path:        CleanPath(path),
		Offset:      offset,
		Size:        size,
		Compression: compression,
	}, nil
}

// ReadDir はディレクトリ内のエントリを返します。空のパスはルートです。
func (a *Archive) ReadDir(dir string) ([]DirEntry, error) {
	hdr, ok := a.dir.lookupDir(SplitPath(dir))
	if !ok {
		return nil, newArchiveError("readdir", dir, ErrNotFound)
	}
	return a.readDir(hdr), nil
}

func (a *Archive) readDir(hdr uint32) []DirEntry {
	raw := a.dir.entries(hdr)
	list := make([]DirEntry, len(raw))
	for i, e := range raw {
		list[i] = DirEntry{Name: a.dir.name(e), IsDir: e.isDir}
		if !e.isDir {
			_, list[i].Size, list[i].Compression = a.dir.fileHeader(e)
		}
	}
	return list
}

// WalkFunc は Walk が各エントリに対して呼び出す関数です
type WalkFunc func(path string, entry DirEntry) error

// SkipDir を WalkFunc から返すとそのディレクトリの中身をスキップします。
// ファイルに対して返した場合は同じディレクトリの残りをスキップします。
var SkipDir = errors.New("skip this directory")

// Walk はアーカイブ内の全エントリを深さ優先でたどります
func (a *Archive) Walk(fn WalkFunc) error {
	return a.walk(0, "", fn)
}

func (a *Archive) walk(hdr uint32, prefix string, fn WalkFunc) error {
	raw := a.dir.entries(hdr)
	for i, de := range a.readDir(hdr) {
		p := de.Name
		if prefix != "" {
			p = prefix + "/" + de.Name
		}
		err := fn(p, de)
		if de.IsDir {
			if errors.Is(err, SkipDir) {
				continue
			}
			if err != nil {
				return err
			}
			if err := a.walk(raw[i].dataPos, p, fn); err != nil {
				return err
			}
		} else if errors.Is(err, SkipDir) {
			return nil
		} else if err != nil {
			return err
		}
	}
	return nil
}

// ReadFile はファイルを展開して返します
func (a *Archive) ReadFile(entry FileEntry) ([]byte, error) {
	if entry.Size > MaxFileSize {
		return nil, newArchiveError("read", entry.Path, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, entry.Size))
	}
	out := make([]byte, entry.Size)
	if err := a.Extract(entry, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Extract はファイルを dst に展開します。dst の長さは entry.Size と一致する必要があります。
// 失敗した場合 dst の内容は不定です。
func (a *Archive) Extract(entry FileEntry, dst []byte) error {
	if len(dst) != int(entry.Size) {
		return newArchiveError("read", entry.Path, fmt.Errorf("buffer size %d does not match file size %d", len(dst), entry.Size))
	}
	if entry.Size > MaxFileSize {
		return newArchiveError("read", entry.Path, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, entry.Size))
	}

	var err error
	switch entry.Compression {
	case CompressionNone:
		err = a.readStored(int64(entry.Offset), dst)
	case CompressionLZ77, CompressionZlib:
		err = a.readChunked(entry.Offset, dst)
	default:
		err = fmt.Errorf("%w: file compression %d", ErrUnsupportedCompression, entry.Compression)
	}
	if err != nil {
		return newArchiveError("read", entry.Path, err)
	}
	return nil
}

// readAt は位置 off から n バイトを読み込みアーカイブ暗号を復号します
func (a *Archive) readAt(off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := a.readStored(off, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (a *Archive) readStored(off int64, dst []byte) error {
	if n, err := a.r.ReadAt(dst, off); err != nil && n < len(dst) {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %d bytes at 0x%x", ErrTruncated, len(dst), off)
		}
		return err
	}
	crypto.ArchiveCrypt(dst, a.key, off)
	return nil
}
