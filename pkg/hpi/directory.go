package hpi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/shiroemons/go-hpivfs/internal/fileutil"
)

// ディレクトリブロック内のレコードサイズ
const (
	dirHeaderSize  = 8 // fileCount, entryOffset
	entrySize      = 9 // namePos, dataPos, isDirectory
	fileHeaderSize = 9 // dataOffset, dataSize, compressionType
)

// directory は復号・再配置済みのディレクトリブロック
//
// ブロック内のオフセットはすべてこのバッファ自身を指します。
// ツリーはオブジェクトとして展開せず、オフセットをたどって参照します。
type directory struct {
	buf []byte
}

// entry はディレクトリエントリ1件
type entry struct {
	namePos uint32
	dataPos uint32
	isDir   bool
}

func (d *directory) u32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(d.buf[off:])
}

func (d *directory) putU32(off, v uint32) {
	binary.LittleEndian.PutUint32(d.buf[off:], v)
}

// fits はオフセット off から n バイトがバッファ内に収まるか確認します
func (d *directory) fits(off uint32, n int) bool {
	return int64(off)+int64(n) <= int64(len(d.buf))
}

// rebase はファイル上の絶対位置で書かれたオフセットを
// バッファ先頭 (ファイル上の start) からの相対位置に書き換えます。
func (d *directory) rebase(start uint32) error {
	if !d.fits(0, dirHeaderSize) {
		return fmt.Errorf("%w: directory block too small (%d bytes)", ErrCorruptDirectory, len(d.buf))
	}
	return d.rebaseDir(0, start, make(map[uint32]bool))
}

// rebaseDir はディレクトリを再帰的に再配置します。
// 同じフィールドを2回書き換えると位置がずれるため、共有や循環したツリーは拒否します。
func (d *directory) rebaseDir(hdr, start uint32, relocated map[uint32]bool) error {
	count := d.u32(hdr)
	entryOfs, err := d.relocate(hdr+4, start, relocated)
	if err != nil {
		return err
	}
	if !d.fits(entryOfs, int(count)*entrySize) {
		return fmt.Errorf("%w: entry table at 0x%x (%d entries) exceeds directory", ErrCorruptDirectory, entryOfs, count)
	}

	for i := uint32(0); i < count; i++ {
		e := entryOfs + i*entrySize
		namePos, err := d.relocate(e, start, relocated)
		if err != nil {
			return err
		}
		if bytes.IndexByte(d.buf[namePos:], 0) < 0 {
			return fmt.Errorf("%w: unterminated name at 0x%x", ErrCorruptDirectory, namePos)
		}
		dataPos, err := d.relocate(e+4, start, relocated)
		if err != nil {
			return err
		}

		if d.buf[e+8] != 0 {
			if !d.fits(dataPos, dirHeaderSize) {
				return fmt.Errorf("%w: subdirectory header at 0x%x exceeds directory", ErrCorruptDirectory, dataPos)
			}
			if err := d.rebaseDir(dataPos, start, relocated); err != nil {
				return err
			}
		} else if !d.fits(dataPos, fileHeaderSize) {
			return fmt.Errorf("%w: file header at 0x%x exceeds directory", ErrCorruptDirectory, dataPos)
		}
	}
	return nil
}

// relocate は off にある絶対位置を相対位置に書き換えて返します
func (d *directory) relocate(off, start uint32, relocated map[uint32]bool) (uint32, error) {
	if relocated[off] {
		return 0, fmt.Errorf("%w: record at 0x%x referenced twice", ErrCorruptDirectory, off)
	}
	relocated[off] = true
	v := d.u32(off)
	// 空のエントリ表はバッファ終端を指すことがあるため終端ちょうどまでは許可する
	if v < start || int64(v-start) > int64(len(d.buf)) {
		return 0, fmt.Errorf("%w: offset 0x%x outside directory [0x%x, 0x%x]", ErrCorruptDirectory, v, start, int64(start)+int64(len(d.buf)))
	}
	v -= start
	d.putU32(off, v)
	return v, nil
}

func (d *directory) entryAt(off uint32) entry {
	return entry{
		namePos: d.u32(off),
		dataPos: d.u32(off + 4),
		isDir:   d.buf[off+8] != 0,
	}
}

// entries は hdr にあるディレクトリのエントリを返します
func (d *directory) entries(hdr uint32) []entry {
	count := d.u32(hdr)
	ofs := d.u32(hdr + 4)
	list := make([]entry, count)
	for i := range list {
		list[i] = d.entryAt(ofs + uint32(i)*entrySize)
	}
	return list
}

func (d *directory) name(e entry) string {
	raw := d.buf[e.namePos:]
	raw = raw[:bytes.IndexByte(raw, 0)]
	return fileutil.FromWindows1252(raw)
}

func (d *directory) fileHeader(e entry) (offset, size uint32, compression uint8) {
	return d.u32(e.dataPos), d.u32(e.dataPos + 4), d.buf[e.dataPos+8]
}

// find はディレクトリ内のエントリを大文字小文字を区別せずに線形探索します
func (d *directory) find(hdr uint32, name string) (entry, bool) {
	for _, e := range d.entries(hdr) {
		if strings.EqualFold(d.name(e), name) {
			return e, true
		}
	}
	return entry{}, false
}

// lookupDir はパスのディレクトリヘッダ位置を返します。空のパスはルートです。
func (d *directory) lookupDir(segs []string) (uint32, bool) {
	hdr := uint32(0)
	for _, seg := range segs {
		e, ok := d.find(hdr, seg)
		if !ok || !e.isDir {
			return 0, false
		}
		hdr = e.dataPos
	}
	return hdr, true
}

// lookup はファイルのエントリを探します
func (d *directory) lookup(segs []string) (entry, bool) {
	if len(segs) == 0 {
		return entry{}, false
	}
	hdr, ok := d.lookupDir(segs[:len(segs)-1])
	if !ok {
		return entry{}, false
	}
	e, ok := d.find(hdr, segs[len(segs)-1])
	if !ok || e.isDir {
		return entry{}, false
	}
	return e, true
}

// SplitPath はパスを区切り文字 ('/' と '\') で分割します。
// 空の要素と "." は取り除かれます。
func SplitPath(p string) []string {
	fields := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	segs := fields[:0]
	for _, f := range fields {
		if f != "." {
			segs = append(segs, f)
		}
	}
	return segs
}

// CleanPath はパスを '/' 区切りの正規形にします
func CleanPath(p string) string {
	return strings.Join(SplitPath(p), "/")
}
