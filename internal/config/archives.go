package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shiroemons/go-hpivfs/internal/interfaces"
	"github.com/shiroemons/go-hpivfs/pkg/vfs"
)

// ErrEmptyArchiveName は名前のないアーカイブが指定された場合のエラー
var ErrEmptyArchiveName = errors.New("アーカイブ名が空です")

// ArchiveTable はアーカイブの検索順を記述する設定ファイルの内容
//
//	archives:
//	  - name: rev31.gp3
//	    mandatory: true
//	  - name: totala4.hpi
//	scan_extension: .ufo
type ArchiveTable struct {
	Archives      []ArchiveEntry `yaml:"archives"`
	ScanExtension string         `yaml:"scan_extension"`
}

// ArchiveEntry は検索順の1件
type ArchiveEntry struct {
	Name      string `yaml:"name"`
	Mandatory bool   `yaml:"mandatory"`
}

// LoadArchiveTable はYAMLファイルからアーカイブの検索順を読み込みます
func LoadArchiveTable(fs interfaces.FileSystem, path string) (*ArchiveTable, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive table: %w", err)
	}
	return ParseArchiveTable(data)
}

// ParseArchiveTable はYAMLからアーカイブの検索順を読み込みます
func ParseArchiveTable(data []byte) (*ArchiveTable, error) {
	var table ArchiveTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse archive table: %w", err)
	}
	for i, a := range table.Archives {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: archives[%d]", ErrEmptyArchiveName, i)
		}
	}
	return &table, nil
}

// Specs はVFSに渡すアーカイブ一覧を返します
func (t *ArchiveTable) Specs() []vfs.ArchiveSpec {
	specs := make([]vfs.ArchiveSpec, len(t.Archives))
	for i, a := range t.Archives {
		specs[i] = vfs.ArchiveSpec{Name: a.Name, Mandatory: a.Mandatory}
	}
	return specs
}
