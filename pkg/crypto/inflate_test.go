package crypto

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func TestInflate(t *testing.T) {
	src := bytes.Repeat([]byte("GAF frame data "), 500)

	got, err := Inflate(deflate(t, src), len(src))
	if err != nil {
		t.Fatalf("Inflate() error = %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Error("Inflate() の結果が元データと一致しない")
	}
}

func TestInflate_Empty(t *testing.T) {
	got, err := Inflate(deflate(t, nil), 0)
	if err != nil {
		t.Fatalf("Inflate() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Inflate() = %d bytes, want 0", len(got))
	}
}

func TestInflate_Errors(t *testing.T) {
	src := []byte("short")
	compressed := deflate(t, src)

	tests := []struct {
		name string
		data []byte
		size int
	}{
		{name: "zlibヘッダでない", data: []byte{0x00, 0x01, 0x02, 0x03}, size: 4},
		{name: "期待サイズより短い", data: compressed, size: len(src) + 10},
		{name: "途中で切れている", data: compressed[:len(compressed)/2], size: len(src)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Inflate(tt.data, tt.size); err == nil {
				t.Error("Inflate() should return error")
			}
		})
	}
}
