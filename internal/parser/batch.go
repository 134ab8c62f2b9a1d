package parser

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParseFile extracts path with the matching extractor. Unsupported files
// give a result carrying a single error.
func (r *Registry) ParseFile(path string, source []byte) *ParseResult {
	e, ok := r.Lookup(path)
	if !ok {
		result := newParseResult(path, "")
		result.Errors = append(result.Errors, fmt.Sprintf("Unsupported file type: %s", path))
		return result
	}
	return e.ParseFile(path, source)
}

// ParseFiles extracts paths concurrently with at most workers files in
// flight. Results line up with paths. A failing file never stops the batch;
// only cancellation of ctx does.
func ParseFiles(ctx context.Context, reg *Registry, paths []string, workers int) ([]*ParseResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]*ParseResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = reg.ParseFile(path, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
