package http

import (
	"context"
	"errors"
	"testing"
)

func TestPageIterator_WalksAllPages(t *testing.T) {
	pages := [][]int{{1, 2}, {3, 4}, {5}}
	it := NewPageIterator(func(ctx context.Context, page int) ([]int, bool, error) {
		return pages[page-1], page < len(pages), nil
	})

	got, err := it.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Collect() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Collect()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPageIterator_MaxItems(t *testing.T) {
	it := NewPageIterator(func(ctx context.Context, page int) ([]int, bool, error) {
		return []int{page}, true, nil
	})

	got, err := it.Collect(context.Background(), 3)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Collect() returned %d items, want 3", len(got))
	}
}

func TestPageIterator_SkipsEmptyPages(t *testing.T) {
	pages := [][]int{{1}, {}, {2}}
	it := NewPageIterator(func(ctx context.Context, page int) ([]int, bool, error) {
		return pages[page-1], page < len(pages), nil
	})

	got, err := it.Collect(context.Background(), 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Collect() = %v, want [1 2]", got)
	}
}

func TestPageIterator_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	it := NewPageIterator(func(ctx context.Context, page int) ([]int, bool, error) {
		if page == 2 {
			return nil, false, boom
		}
		return []int{page}, true, nil
	})

	_, err := it.Collect(context.Background(), 0)
	if !errors.Is(err, boom) {
		t.Errorf("Collect() error = %v, want %v", err, boom)
	}

	// The error is sticky.
	if _, _, err := it.Next(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Next() after failure = %v, want %v", err, boom)
	}
}
