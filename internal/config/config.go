// Package config はhpifsコマンドの設定管理を行います
package config

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/pflag"
)

const Version = "0.1.0"

// Config はアプリケーションの設定を保持します
type Config struct {
	Root        string // ネイティブディレクトリ (空の場合は実行ファイルのディレクトリ)
	ConfigFile  string // アーカイブ一覧のYAMLファイル
	List        bool
	Recursive   bool
	Extract     bool
	OutputDir   string
	Workers     int
	CacheSize   int
	Cat         bool
	Info        bool
	DebugMode   bool
	ShowVersion bool
	Args        []string
}

// ParseFlags はコマンドライン引数を解析して設定を返します
func ParseFlags(args []string, output io.Writer) (*Config, error) {
	config := &Config{}

	flags := pflag.NewFlagSet("hpifs", pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintln(output, "使用方法: hpifs [オプション] [パス...]")
		fmt.Fprintln(output, "オプション:")
		flags.PrintDefaults()
	}

	flags.StringVarP(&config.Root, "root", "r", "", "native game directory (default: directory of the executable)")
	flags.StringVarP(&config.ConfigFile, "config", "c", "", "YAML file with the archive search table")
	flags.BoolVarP(&config.List, "list", "l", false, "list files in the given directory")
	flags.BoolVarP(&config.Recursive, "recursive", "R", false, "list subdirectories recursively")
	flags.BoolVarP(&config.Extract, "extract", "x", false, "extract files matching the given patterns")
	flags.StringVarP(&config.OutputDir, "output", "o", ".", "output directory for extracted files")
	flags.IntVarP(&config.Workers, "workers", "w", 4, "number of writer goroutines for extraction")
	flags.IntVar(&config.CacheSize, "cache", 64, "number of decoded archive files kept in memory (0 disables)")
	flags.BoolVar(&config.Cat, "cat", false, "write the given files to stdout")
	flags.BoolVar(&config.Info, "info", false, "show header and directory tree of the given archive files")
	flags.BoolVarP(&config.DebugMode, "debug", "d", false, "enable debug output")
	flags.BoolVarP(&config.ShowVersion, "version", "v", false, "show version information")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	config.Args = flags.Args()
	return config, nil
}

// HandleVersion はバージョン表示を処理します
func HandleVersion(showVersion bool) {
	if showVersion {
		fmt.Printf("hpifs version %s\n", Version)
		os.Exit(0)
	}
}

// DebugLogger はデバッグ出力を管理します。複数のゴルーチンから同時に使えます。
type DebugLogger struct {
	enabled bool
	mu      sync.Mutex
	out     io.Writer
}

// NewDebugLoggerTo は出力先を指定してDebugLoggerを作成します
func NewDebugLoggerTo(enabled bool, out io.Writer) *DebugLogger {
	return &DebugLogger{enabled: enabled, out: out}
}

// Printf はデバッグモードが有効な場合のみメッセージを表示します
func (d *DebugLogger) Printf(format string, a ...any) {
	if d.enabled {
		d.mu.Lock()
		defer d.mu.Unlock()
		fmt.Fprintf(d.out, format, a...)
	}
}
