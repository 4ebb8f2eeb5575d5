package sheet

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"smarttable/internal/calc"
	"smarttable/internal/grid"
)

// Recalc evaluates every formula cell with a pool of workers. Each cell
// is computed from scratch. Scheduling stops when ctx is cancelled; the
// results gathered so far are returned with ctx's error.
func (s *Sheet) Recalc(ctx context.Context) (map[grid.Ref]calc.Result, error) {
	start := time.Now()
	var formulas []grid.Ref
	for _, ref := range s.Refs() {
		if strings.HasPrefix(s.Raw(ref), "=") {
			formulas = append(formulas, ref)
		}
	}

	results := make(map[grid.Ref]calc.Result, len(formulas))
	var mu sync.Mutex
	jobs := make(chan grid.Ref)
	var wg sync.WaitGroup
	workers := runtime.NumCPU()
	if workers > len(formulas) {
		workers = len(formulas)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				res := s.Eval(ref)
				mu.Lock()
				results[ref] = res
				mu.Unlock()
			}
		}()
	}

	var err error
feed:
	for _, ref := range formulas {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- ref:
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Debug("recalculated sheet", "formulas", len(formulas), "done", len(results), "elapsed", time.Since(start))
	return results, err
}

// PendingCell is a formula cell waiting on an asynchronous AI answer.
type PendingCell struct {
	Ref    grid.Ref
	Prompt string
}

// Pending lists the cells whose AI(...) call has not been answered yet,
// in row order.
func (s *Sheet) Pending(ctx context.Context) ([]PendingCell, error) {
	results, err := s.Recalc(ctx)
	if err != nil {
		return nil, err
	}
	var out []PendingCell
	for _, ref := range s.Refs() {
		if res, ok := results[ref]; ok && res.Pending {
			out = append(out, PendingCell{Ref: ref, Prompt: res.Prompt})
		}
	}
	if len(out) > 0 {
		s.logger.Debug("deferred cells waiting", "count", len(out))
	}
	return out, nil
}
