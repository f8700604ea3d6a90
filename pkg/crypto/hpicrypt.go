// Package crypto はHPIアーカイブで使用される暗号化・圧縮アルゴリズムを提供します。
//
// 主な機能:
//   - ArchiveCrypt: ファイル上の絶対位置をキーにしたXOR暗号 (ディレクトリと非圧縮データ)
//   - DecryptChunk / EncryptChunk: チャンク内の位置をキーにした暗号
//   - UNLZ77: 4096バイトのリングバッファを使うLZ77データの解凍
//   - Inflate: zlib圧縮データの解凍
package crypto

// ArchiveKey はヘッダのシード値から復号キーを求めます。
// シードが0の場合は暗号化されていないためキーも0になります。
func ArchiveKey(seed uint32) uint32 {
	if seed == 0 {
		return 0
	}
	return ^((seed * 4) | (seed >> 6))
}

// ArchiveCrypt はアーカイブファイル上の絶対位置 pos から始まるデータを
// その場で暗号化・復号します。変換は対称なので同じ関数で元に戻せます。
// data[i] はファイル上の位置 pos+i のバイトとして扱われます。
func ArchiveCrypt(data []byte, key uint32, pos int64) {
	for i := range data {
		tkey := uint32(pos+int64(i)) ^ key
		data[i] = byte(tkey) ^ ^data[i]
	}
}

// DecryptChunk はチャンクのペイロードを復号します。
// キーはチャンク内の位置のみで、ファイル上の位置には依存しません。
func DecryptChunk(data []byte) {
	for i := range data {
		x := byte(i)
		data[i] = (data[i] - x) ^ x
	}
}

// EncryptChunk は DecryptChunk の逆変換です。
func EncryptChunk(data []byte) {
	for i := range data {
		x := byte(i)
		data[i] = (data[i] ^ x) + x
	}
}
