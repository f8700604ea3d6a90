package vfs

// ArchiveSpec は検索順に登録するアーカイブ1件
type ArchiveSpec struct {
	Name      string // ネイティブディレクトリからの相対パス
	Mandatory bool   // 読み込めない場合にVFSの作成を失敗させる
}

// DefaultScanExtension は追加アーカイブとして探す拡張子
const DefaultScanExtension = ".ufo"

// DefaultArchives は標準の検索順を返します。先頭ほど優先度が高くなります。
func DefaultArchives() []ArchiveSpec {
	return []ArchiveSpec{
		{Name: "rev31.gp3", Mandatory: true},
		{Name: "totala1.hpi", Mandatory: true},
		{Name: "totala2.hpi", Mandatory: true},
		{Name: "totala4.hpi"},
		{Name: "ccdata.ccx"},
		{Name: "ccmaps.ccx"},
		{Name: "ccmiss.ccx"},
		{Name: "btdata.ccx"},
		{Name: "btmaps.ccx"},
		{Name: "tactics1.hpi"},
		{Name: "tactics2.hpi"},
		{Name: "tactics3.hpi"},
		{Name: "tactics4.hpi"},
		{Name: "tactics5.hpi"},
		{Name: "tactics6.hpi"},
		{Name: "tactics7.hpi"},
		{Name: "tactics8.hpi"},
		{Name: "worlds.hpi"},
	}
}
