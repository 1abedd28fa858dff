package pipeline

import (
	"context"
	"sync"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// pageJob is a single page processing job.
type pageJob struct {
	index int
	input PageInput
}

// pageResult is the outcome of one page job.
type pageResult struct {
	index int
	page  document.Page
}

// ProcessPages processes pages through a bounded worker pool and returns
// them in input order. On cancellation, in-flight pages are abandoned and
// the pages completed so far are returned together with the context error;
// each returned page is independently valid.
func (p *Pipeline) ProcessPages(ctx context.Context, inputs []PageInput) ([]document.Page, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	workers := p.cfg.Workers
	if workers > len(inputs) {
		workers = len(inputs)
	}
	if len(inputs) == 1 || workers <= 1 {
		return p.processSequential(ctx, inputs)
	}

	p.progress.OnStart(len(inputs))
	defer p.progress.OnComplete()

	jobs := make(chan pageJob, len(inputs))
	results := make(chan pageResult, len(inputs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job, ok := <-jobs:
					if !ok {
						return
					}
					page := p.ProcessPage(ctx, job.input)
					select {
					case results <- pageResult{index: job.index, page: page}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, in := range inputs {
			select {
			case jobs <- pageJob{index: i, input: in}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := make(map[int]document.Page, len(inputs))
	for res := range results {
		completed[res.index] = res.page
		p.progress.OnProgress(len(completed), len(inputs))
	}

	pages := make([]document.Page, 0, len(completed))
	for i := range inputs {
		if page, ok := completed[i]; ok {
			pages = append(pages, page)
		}
	}
	return pages, ctx.Err()
}

func (p *Pipeline) processSequential(ctx context.Context, inputs []PageInput) ([]document.Page, error) {
	p.progress.OnStart(len(inputs))
	defer p.progress.OnComplete()

	pages := make([]document.Page, 0, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		pages = append(pages, p.ProcessPage(ctx, in))
		p.progress.OnProgress(i+1, len(inputs))
	}
	return pages, nil
}
