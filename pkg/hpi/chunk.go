package hpi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/shiroemons/go-hpivfs/pkg/crypto"
)

const (
	// ChunkSize はチャンク1つあたりの展開後サイズ
	ChunkSize = 65536

	// ChunkMarker はチャンクヘッダの識別子 'SQSH' (リトルエンディアン)
	ChunkMarker = 0x48535153

	chunkHeaderSize = 19
	maxChunkLength  = chunkHeaderSize + 2*ChunkSize
)

// チャンクの圧縮方式
const (
	ChunkLZ77 = 1
	ChunkZlib = 2
)

// chunkHeader はチャンク先頭のヘッダ
type chunkHeader struct {
	Marker           uint32
	Version          uint8 // 使用しない
	Method           uint8
	Encrypted        uint8
	CompressedSize   uint32
	DecompressedSize uint32
	Checksum         uint32
}

// chunkCount は展開後サイズ size のファイルのチャンク数を返します
func chunkCount(size uint32) int {
	return int((int64(size) + ChunkSize - 1) / ChunkSize)
}

// readChunked はチャンク列を読み込み out に展開します。
// out の長さはファイルの展開後サイズと一致している必要があります。
func (a *Archive) readChunked(offset uint32, out []byte) error {
	n := chunkCount(uint32(len(out)))
	sizes, err := a.readAt(int64(offset), 4*n)
	if err != nil {
		return err
	}

	pos := int64(offset) + int64(4*n)
	written := 0
	for i := 0; i < n; i++ {
		length := binary.LittleEndian.Uint32(sizes[4*i:])
		if length > maxChunkLength {
			return fmt.Errorf("%w: chunk %d length %d", ErrCorruptChunk, i, length)
		}
		raw, err := a.readAt(pos, int(length))
		if err != nil {
			return err
		}
		pos += int64(length)

		m, err := decodeChunk(raw, out[written:])
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		written += m
	}

	if written != len(out) {
		return fmt.Errorf("%w: decoded %d of %d bytes", ErrCorruptChunk, written, len(out))
	}
	return nil
}

// decodeChunk は復号済みのチャンク1つを out の先頭に展開し、書き込んだバイト数を返します
func decodeChunk(raw []byte, out []byte) (int, error) {
	if len(raw) < chunkHeaderSize {
		return 0, fmt.Errorf("%w: chunk header (%d bytes)", ErrTruncated, len(raw))
	}
	var h chunkHeader
	if err := binary.Read(bytes.NewReader(raw[:chunkHeaderSize]), binary.LittleEndian, &h); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if h.Marker != ChunkMarker {
		return 0, fmt.Errorf("%w: invalid marker 0x%08x", ErrCorruptChunk, h.Marker)
	}
	if int64(h.CompressedSize) > int64(len(raw)-chunkHeaderSize) {
		return 0, fmt.Errorf("%w: payload %d bytes, %d available", ErrTruncated, h.CompressedSize, len(raw)-chunkHeaderSize)
	}
	if int64(h.DecompressedSize) > int64(len(out)) {
		return 0, fmt.Errorf("%w: chunk expands to %d bytes, %d remaining", ErrCorruptChunk, h.DecompressedSize, len(out))
	}

	payload := raw[chunkHeaderSize : chunkHeaderSize+int(h.CompressedSize)]

	// チェックサムは格納されたままのバイト列 (チャンク暗号の復号前) で計算する
	if sum := checksum(payload); sum != h.Checksum {
		return 0, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrChecksumMismatch, sum, h.Checksum)
	}
	if h.Encrypted != 0 {
		crypto.DecryptChunk(payload)
	}

	dst := out[:h.DecompressedSize]
	switch h.Method {
	case ChunkLZ77:
		n, err := crypto.UNLZ77(payload, dst)
		if err != nil {
			return 0, fmt.Errorf("%w: lz77: %v", ErrCorruptChunk, err)
		}
		if n != len(dst) {
			return 0, fmt.Errorf("%w: lz77 produced %d of %d bytes", ErrCorruptChunk, n, len(dst))
		}
	case ChunkZlib:
		data, err := crypto.Inflate(payload, len(dst))
		if err != nil {
			return 0, errors.Join(ErrCorruptChunk, err)
		}
		copy(dst, data)
	default:
		return 0, fmt.Errorf("%w: chunk method %d", ErrUnsupportedCompression, h.Method)
	}
	return len(dst), nil
}

// checksum は各バイトの合計 (mod 2^32) を返します
func checksum(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}
