package http

import "context"

// PageFetcher fetches one page of items. Pages are numbered from 1.
// It returns the items, whether more pages remain, and any error.
type PageFetcher[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// PageIterator lazily walks paginated API results.
type PageIterator[T any] struct {
	fetch  PageFetcher[T]
	page   int
	buffer []T
	done   bool
	err    error
}

// NewPageIterator creates an iterator over the given fetch function.
func NewPageIterator[T any](fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{fetch: fetch}
}

// Next returns the next item, fetching the next page when the buffer is
// exhausted. It returns (zero, false, nil) once iteration is complete.
func (p *PageIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if p.err != nil {
		return zero, false, p.err
	}

	// Loop past empty pages that still report more results.
	for len(p.buffer) == 0 && !p.done {
		p.page++
		items, hasMore, err := p.fetch(ctx, p.page)
		if err != nil {
			p.err = err
			return zero, false, err
		}
		p.buffer = items
		p.done = !hasMore
	}

	if len(p.buffer) == 0 {
		return zero, false, nil
	}

	item := p.buffer[0]
	p.buffer = p.buffer[1:]
	return item, true, nil
}

// Collect drains the iterator into a slice, stopping after max items
// when max > 0.
func (p *PageIterator[T]) Collect(ctx context.Context, max int) ([]T, error) {
	var out []T
	for {
		item, ok, err := p.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
		if max > 0 && len(out) >= max {
			return out, nil
		}
	}
}
