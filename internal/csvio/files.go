package csvio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/roitrack/internal/task"
)

// DecodeFile opens path and decodes it.
func DecodeFile(path string) ([]task.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvio: open %s: %w", path, err)
	}
	defer f.Close()
	tasks, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("csvio: %s: %w", path, err)
	}
	return tasks, nil
}

// DecodeFiles decodes every path concurrently and concatenates the results
// in argument order. The first failure cancels the remaining reads.
func DecodeFiles(ctx context.Context, paths ...string) ([]task.Task, error) {
	results := make([][]task.Task, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tasks, err := DecodeFile(path)
			if err != nil {
				return err
			}
			results[i] = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []task.Task
	for _, tasks := range results {
		all = append(all, tasks...)
	}
	return all, nil
}

// WriteFile encodes tasks into path, creating parent directories.
func WriteFile(path string, tasks []task.Task) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csvio: ensure dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: create %s: %w", path, err)
	}
	if err := Encode(f, tasks); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csvio: close %s: %w", path, err)
	}
	return nil
}
