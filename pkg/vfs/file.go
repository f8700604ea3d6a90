package vfs

import (
	"encoding/binary"
	"io"
)

// File はメモリ上に展開された読み取り専用のファイル
//
// io.Reader と io.Seeker を実装します。
type File struct {
	name   string
	source string
	data   []byte
	size   int64
	pos    int64
	closed bool
}

func newFile(name, source string, data []byte, size int) *File {
	return &File{name: name, source: source, data: data, size: int64(size)}
}

// Name は開いたときのパス ('/' 区切り) を返します
func (f *File) Name() string {
	return f.name
}

// Source は読み込み元のアーカイブ名を返します。ネイティブファイルの場合は Native です。
func (f *File) Source() string {
	return f.source
}

// Size はファイルサイズを返します。終端バイトは含みません。
func (f *File) Size() int64 {
	return f.size
}

// Tell は現在の読み込み位置を返します
func (f *File) Tell() int64 {
	return f.pos
}

// Bytes はファイル全体を返します。
// OpenTerminated で開いた場合は終端の0バイトを含みます。
func (f *File) Bytes() []byte {
	return f.data
}

// Read は現在位置から p に読み込みます。
// io.Reader の規約に従い、終端では 0 と io.EOF を返します。
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if f.pos >= f.size {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:f.size])
	f.pos += int64(n)
	return n, nil
}

// Seek は読み込み位置を移動します。
// 移動先は 0 以上 Size 以下である必要があり、範囲外の場合は位置を変えずに ErrInvalidSeek を返します。
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = f.size + offset
	default:
		return f.pos, ErrInvalidSeek
	}
	if abs < 0 || abs > f.size {
		return f.pos, ErrInvalidSeek
	}
	f.pos = abs
	return abs, nil
}

// next は n バイトを読み進めて返します。足りない場合は位置を変えません。
func (f *File) next(n int64) ([]byte, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if f.size-f.pos < n {
		return nil, io.ErrUnexpectedEOF
	}
	b := f.data[f.pos : f.pos+n]
	f.pos += n
	return b, nil
}

// ReadUint8 は1バイト読み込みます
func (f *File) ReadUint8() (uint8, error) {
	b, err := f.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 はリトルエンディアンの uint16 を読み込みます
func (f *File) ReadUint16() (uint16, error) {
	b, err := f.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 はリトルエンディアンの uint32 を読み込みます
func (f *File) ReadUint32() (uint32, error) {
	b, err := f.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Close はバッファを解放します
func (f *File) Close() error {
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	f.data = nil
	return nil
}
