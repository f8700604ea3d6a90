package hpi

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Magic はHPIアーカイブの識別子 'HAPI' (リトルエンディアン)
	Magic = 0x49504148

	// HeaderSize はディスク上のヘッダサイズ
	HeaderSize = 20
)

// Header はアーカイブ先頭のヘッダ
type Header struct {
	Magic         uint32
	SaveMarker    uint32 // 使用しない
	DirectorySize uint32 // ディレクトリ終端のファイル上の位置
	Seed          uint32
	Start         uint32 // ディレクトリ先頭のファイル上の位置
}

// DirectoryLength はディレクトリブロックのバイト数を返します
func (h Header) DirectoryLength() int64 {
	return int64(h.DirectorySize) - int64(h.Start)
}

func readHeader(r io.ReaderAt) (Header, error) {
	var h Header
	if err := binary.Read(io.NewSectionReader(r, 0, HeaderSize), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: failed to read header: %v", ErrInvalidArchive, err)
	}
	if h.Magic != Magic {
		return h, fmt.Errorf("%w: invalid magic number 0x%08x", ErrInvalidArchive, h.Magic)
	}
	return h, nil
}
