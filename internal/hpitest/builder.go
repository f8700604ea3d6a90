// Package hpitest はテスト用のHPIアーカイブを組み立てます
package hpitest

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/shiroemons/go-hpivfs/pkg/crypto"
)

const (
	headerSize      = 20
	chunkSize       = 65536
	chunkHeaderSize = 19
	chunkMarker     = 0x48535153
	magic           = 0x49504148
)

// Compression はファイルの格納方式
type Compression int

const (
	Stored Compression = iota
	LZ77
	Zlib
)

// Layout はビルド後のファイルデータの配置
type Layout struct {
	Offset  int   // ファイル上のデータ位置
	Payload []int // チャンクごとのペイロード先頭位置 (チャンク形式のみ)
	Lengths []int // チャンクごとのペイロード長
}

type node struct {
	name        string
	dir         bool
	children    []*node
	data        []byte
	compression Compression
	encrypted   bool
	size        *uint32 // ディレクトリに書くサイズ (nil の場合は実際のサイズ)
}

// Builder はメモリ上でHPIアーカイブを組み立てます
type Builder struct {
	Seed   uint32
	root   *node
	layout map[string]Layout
}

// NewBuilder は新しいBuilderを作成します。seed が0の場合は暗号化しません。
func NewBuilder(seed uint32) *Builder {
	return &Builder{
		Seed:   seed,
		root:   &node{dir: true},
		layout: make(map[string]Layout),
	}
}

// AddFile はファイルを追加します。途中のディレクトリは自動的に作られます。
func (b *Builder) AddFile(path string, data []byte, compression Compression, encrypted bool) *Builder {
	segs := strings.Split(path, "/")
	parent := b.mkdir(segs[:len(segs)-1])
	parent.children = append(parent.children, &node{
		name:        segs[len(segs)-1],
		data:        data,
		compression: compression,
		encrypted:   encrypted,
	})
	return b
}

// SetSize はディレクトリに書くファイルサイズを実際のサイズとは別の値にします。
// 壊れたファイルヘッダを再現するために使います。
func (b *Builder) SetSize(path string, size uint32) *Builder {
	segs := strings.Split(path, "/")
	parent := b.mkdir(segs[:len(segs)-1])
	for _, c := range parent.children {
		if !c.dir && c.name == segs[len(segs)-1] {
			c.size = &size
		}
	}
	return b
}

// AddDir は空のディレクトリを追加します
func (b *Builder) AddDir(path string) *Builder {
	b.mkdir(strings.Split(path, "/"))
	return b
}

func (b *Builder) mkdir(segs []string) *node {
	cur := b.root
	for _, seg := range segs {
		var next *node
		for _, c := range cur.children {
			if c.dir && c.name == seg {
				next = c
				break
			}
		}
		if next == nil {
			next = &node{name: seg, dir: true}
			cur.children = append(cur.children, next)
		}
		cur = next
	}
	return cur
}

// Layout はビルド後のファイルデータの配置を返します
func (b *Builder) Layout(path string) Layout {
	return b.layout[path]
}

// Bytes はアーカイブ全体を組み立てて返します。
// ファイルデータをヘッダの直後に置き、ディレクトリを最後に置きます。
func (b *Builder) Bytes() []byte {
	key := crypto.ArchiveKey(b.Seed)
	out := make([]byte, headerSize)
	offsets := make(map[*node]uint32)

	var writeData func(n *node, prefix string)
	writeData = func(n *node, prefix string) {
		for _, c := range n.children {
			p := join(prefix, c.name)
			if c.dir {
				writeData(c, p)
				continue
			}
			pos := len(out)
			offsets[c] = uint32(pos)
			blob, layout := encodeFile(c)
			layout.Offset = pos
			for i := range layout.Payload {
				layout.Payload[i] += pos
			}
			b.layout[p] = layout
			crypto.ArchiveCrypt(blob, key, int64(pos))
			out = append(out, blob...)
		}
	}
	writeData(b.root, "")

	start := uint32(len(out))
	var dir []byte
	writeDir(&dir, b.root, start, offsets)
	crypto.ArchiveCrypt(dir, key, int64(start))
	out = append(out, dir...)

	binary.LittleEndian.PutUint32(out[0:], magic)
	binary.LittleEndian.PutUint32(out[4:], 0x00010000)
	binary.LittleEndian.PutUint32(out[8:], start+uint32(len(dir)))
	binary.LittleEndian.PutUint32(out[12:], b.Seed)
	binary.LittleEndian.PutUint32(out[16:], start)
	return out
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func put32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}

// writeDir はディレクトリを書き出し、ヘッダの位置 (ブロック内) を返します。
// ブロック内のオフセットはファイル上の絶対位置 (start + ブロック内位置) で書きます。
func writeDir(dir *[]byte, n *node, start uint32, offsets map[*node]uint32) int {
	children := append([]*node(nil), n.children...)
	sort.SliceStable(children, func(i, j int) bool { return children[i].name < children[j].name })

	hdr := len(*dir)
	*dir = append(*dir, make([]byte, 8)...)
	entries := len(*dir)
	*dir = append(*dir, make([]byte, 9*len(children))...)
	put32(*dir, hdr, uint32(len(children)))
	put32(*dir, hdr+4, start+uint32(entries))

	for i, c := range children {
		namePos := len(*dir)
		*dir = append(*dir, c.name...)
		*dir = append(*dir, 0)

		var dataPos int
		if c.dir {
			dataPos = writeDir(dir, c, start, offsets)
		} else {
			dataPos = len(*dir)
			*dir = append(*dir, make([]byte, 9)...)
			put32(*dir, dataPos, offsets[c])
			size := uint32(len(c.data))
			if c.size != nil {
				size = *c.size
			}
			put32(*dir, dataPos+4, size)
			(*dir)[dataPos+8] = byte(c.compression)
		}

		e := entries + 9*i
		put32(*dir, e, start+uint32(namePos))
		put32(*dir, e+4, start+uint32(dataPos))
		if c.dir {
			(*dir)[e+8] = 1
		}
	}
	return hdr
}

// encodeFile はファイルデータを暗号化前の形式で返します。
// Layout の位置はデータ先頭からの相対位置です。
func encodeFile(n *node) ([]byte, Layout) {
	if n.compression == Stored {
		return bytes.Clone(n.data), Layout{}
	}

	count := (len(n.data) + chunkSize - 1) / chunkSize
	blob := make([]byte, 4*count)
	var layout Layout
	for i := 0; i < count; i++ {
		end := min((i+1)*chunkSize, len(n.data))
		plain := n.data[i*chunkSize : end]

		var payload []byte
		method := byte(1)
		if n.compression == Zlib {
			method = 2
			payload = deflate(plain)
		} else {
			payload = crypto.LZ77Compress(plain)
		}
		if n.encrypted {
			crypto.EncryptChunk(payload)
		}
		var sum uint32
		for _, c := range payload {
			sum += uint32(c)
		}

		header := make([]byte, chunkHeaderSize)
		put32(header, 0, chunkMarker)
		header[4] = 2
		header[5] = method
		if n.encrypted {
			header[6] = 1
		}
		put32(header, 7, uint32(len(payload)))
		put32(header, 11, uint32(len(plain)))
		put32(header, 15, sum)

		put32(blob, 4*i, uint32(chunkHeaderSize+len(payload)))
		layout.Payload = append(layout.Payload, len(blob)+chunkHeaderSize)
		layout.Lengths = append(layout.Lengths, len(payload))
		blob = append(blob, header...)
		blob = append(blob, payload...)
	}
	return blob, layout
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}
