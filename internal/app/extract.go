package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shiroemons/go-hpivfs/internal/fileutil"
	"github.com/shiroemons/go-hpivfs/pkg/vfs"
)

// 書き出しジョブ
type extractJob struct {
	name    string
	data    []byte
	outPath string
}

// 書き出し結果
type extractResult struct {
	name string
	err  error
}

// runExtract はパターンに一致するファイルを出力ディレクトリに書き出します。
// パターンを指定しない場合は全てのファイルが対象です。
//
// VFSからの読み込みは呼び出し元のゴルーチンで順に行い、ディスクへの書き込みだけを並列にします。
func (a *App) runExtract(ctx context.Context, fsys *vfs.VFS) error {
	targets, err := a.extractTargets(fsys)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s", ErrNoMatch, strings.Join(a.config.Args, " "))
	}

	workers := a.config.Workers
	if workers <= 0 {
		workers = 4
	}

	jobs := make(chan extractJob, workers*2)
	results := make(chan extractResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				err := fileutil.WriteFile(job.outPath, job.data)
				results <- extractResult{name: job.name, err: err}
			}
		}()
	}

	// 結果の集計
	count := 0
	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			if r.err != nil {
				fmt.Fprintf(a.stderr, "抽出に失敗しました: %s - %v\n", r.name, r.err)
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: %s: %w", ErrSaveFile, r.name, r.err)
				}
				continue
			}
			a.logger.Printf("抽出: %s\n", r.name)
			count++
		}
	}()

	var readErr error
	for _, fi := range targets {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		f, err := fsys.OpenSpecific(fi.Archive, fi.Path, 0)
		if err != nil {
			fmt.Fprintf(a.stderr, "警告: %s を開けませんでした: %v\n", fi.Path, err)
			continue
		}
		data := f.Bytes()
		f.Close()
		jobs <- extractJob{
			name:    fi.Path,
			data:    data,
			outPath: fileutil.OutputPath(a.config.OutputDir, fi.Path),
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	<-done

	if readErr != nil {
		return readErr
	}
	fmt.Fprintf(a.stdout, "%d 個のファイルを抽出しました\n", count)
	return firstErr
}

// extractTargets は抽出するファイルを重複なしで返します
func (a *App) extractTargets(fsys *vfs.VFS) ([]vfs.FileInfo, error) {
	var candidates []vfs.FileInfo
	if len(a.config.Args) == 0 {
		it := fsys.Iterate("", true)
		for fi := range it.All() {
			if !fi.IsDir {
				candidates = append(candidates, fi)
			}
		}
		it.Close()
	} else {
		for _, pattern := range a.config.Args {
			matches, err := fsys.Glob(pattern)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, matches...)
		}
	}

	seen := make(map[string]bool)
	targets := candidates[:0]
	for _, fi := range candidates {
		key := strings.ToLower(fi.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		targets = append(targets, fi)
	}
	return targets, nil
}
