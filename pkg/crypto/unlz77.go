package crypto

import (
	"errors"
	"io"
)

const (
	// WindowSize はLZ77のリングバッファサイズ
	WindowSize = 0x1000 // 4096
	windowMask = WindowSize - 1

	// 後方参照の長さは下位4ビット + 2
	minMatch = 2
	maxMatch = 0x0f + minMatch
)

// ErrOutputOverflow は解凍結果が出力バッファに収まらない場合のエラー
var ErrOutputOverflow = errors.New("解凍データが出力バッファを超えました")

// UNLZ77 はLZ77圧縮されたデータを out に解凍し、書き込んだバイト数を返します。
//
// 先頭のタグバイトの各ビット (LSBから) が続く最大8トークンの種類を示します。
// 0 はリテラル1バイト、1 は2バイトの後方参照です。
// 後方参照のオフセットはリングバッファ上の絶対位置で、0 は終端を表します。
// 辞書は呼び出しごとに初期化されます。
func UNLZ77(in []byte, out []byte) (int, error) {
	var dict [WindowSize]byte
	dictPos := 1
	inPos := 0
	outPos := 0

	if len(in) == 0 {
		return 0, io.ErrUnexpectedEOF
	}
	tag := in[inPos]
	inPos++
	mask := 1

	for {
		if int(tag)&mask == 0 {
			// リテラル
			if inPos >= len(in) {
				return outPos, io.ErrUnexpectedEOF
			}
			if outPos >= len(out) {
				return outPos, ErrOutputOverflow
			}
			c := in[inPos]
			inPos++
			out[outPos] = c
			outPos++
			dict[dictPos] = c
			dictPos = (dictPos + 1) & windowMask
		} else {
			// 後方参照
			if inPos+2 > len(in) {
				return outPos, io.ErrUnexpectedEOF
			}
			b0, b1 := int(in[inPos]), int(in[inPos+1])
			inPos += 2

			patOfs := b1<<4 | b0>>4
			if patOfs == 0 {
				return outPos, nil // 終端
			}
			patLen := b0&0x0f + minMatch
			if outPos+patLen > len(out) {
				return outPos, ErrOutputOverflow
			}
			for i := 0; i < patLen; i++ {
				c := dict[patOfs]
				out[outPos] = c
				outPos++
				dict[dictPos] = c
				patOfs = (patOfs + 1) & windowMask
				dictPos = (dictPos + 1) & windowMask
			}
		}

		mask <<= 1
		if mask&0x100 != 0 {
			if inPos >= len(in) {
				return outPos, io.ErrUnexpectedEOF
			}
			tag = in[inPos]
			inPos++
			mask = 1
		}
	}
}
