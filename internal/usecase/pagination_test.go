package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestPaginationUseCase_Page(t *testing.T) {
	ctx := context.Background()

	t.Run("First Page", func(t *testing.T) {
		uc := NewPaginationUseCase(newBlogRepo(), discardLogger)

		page, err := uc.Page(ctx, 1, 4, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Total != 9 || page.Pages != 3 {
			t.Errorf("expected total 9 over 3 pages, got %d over %d", page.Total, page.Pages)
		}
		wantIDs := []int64{11, 10, 9, 7}
		if len(page.Items) != len(wantIDs) {
			t.Fatalf("expected %d items, got %d", len(wantIDs), len(page.Items))
		}
		for i, id := range wantIDs {
			if page.Items[i].ID != id {
				t.Errorf("item %d: expected id %d, got %d", i, id, page.Items[i].ID)
			}
			if page.Items[i].Comments != nil {
				t.Errorf("item %d: expected no comments without include_comments", i)
			}
		}
		if page.NextPage == nil || *page.NextPage != "/techniques/pagination?page=2&size=4" {
			t.Errorf("unexpected next link: %v", page.NextPage)
		}
		if page.PrevPage != nil {
			t.Errorf("expected no prev link, got %q", *page.PrevPage)
		}
	})

	t.Run("Last Page", func(t *testing.T) {
		uc := NewPaginationUseCase(newBlogRepo(), discardLogger)

		page, err := uc.Page(ctx, 3, 4, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].ID != 1 {
			t.Errorf("expected only post 1, got %+v", page.Items)
		}
		if page.NextPage != nil {
			t.Errorf("expected no next link, got %q", *page.NextPage)
		}
		if page.PrevPage == nil || *page.PrevPage != "/techniques/pagination?page=2&size=4" {
			t.Errorf("unexpected prev link: %v", page.PrevPage)
		}
	})

	t.Run("Beyond Last Page", func(t *testing.T) {
		uc := NewPaginationUseCase(newBlogRepo(), discardLogger)

		page, err := uc.Page(ctx, 10, 4, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Items == nil || len(page.Items) != 0 {
			t.Errorf("expected an empty, non-nil page, got %v", page.Items)
		}
	})

	t.Run("Huge Page Numbers", func(t *testing.T) {
		tests := []struct {
			name string
			page int
			size int
		}{
			{"Offset Would Overflow", math.MaxInt/100 + 2, 100},
			{"Max Int", math.MaxInt, 1},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				repo := newBlogRepo()
				uc := NewPaginationUseCase(repo, discardLogger)

				page, err := uc.Page(ctx, tc.page, tc.size, false)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if page.Items == nil || len(page.Items) != 0 {
					t.Errorf("expected an empty, non-nil page, got %v", page.Items)
				}
				if page.NextPage != nil {
					t.Errorf("expected no next link, got %q", *page.NextPage)
				}
				if got := repo.QueryCount(); got != 1 {
					t.Errorf("expected only the count query, got %d queries", got)
				}
			})
		}
	})

	t.Run("Include Comments", func(t *testing.T) {
		repo := newBlogRepo()
		uc := NewPaginationUseCase(repo, discardLogger)

		page, err := uc.Page(ctx, 3, 4, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Items[0].Comments) != 2 {
			t.Errorf("expected 2 comments on post 1, got %d", len(page.Items[0].Comments))
		}
		if repo.QueryCount() != 3 {
			t.Errorf("expected count, page and comment queries, got %d", repo.QueryCount())
		}
	})

	t.Run("Validation", func(t *testing.T) {
		uc := NewPaginationUseCase(newBlogRepo(), discardLogger)
		tests := []struct {
			page, size int
			want       error
		}{
			{0, 10, ErrInvalidPage},
			{-1, 10, ErrInvalidPage},
			{1, 0, ErrInvalidSize},
			{1, MaxPageSize + 1, ErrInvalidSize},
		}
		for _, tt := range tests {
			if _, err := uc.Page(ctx, tt.page, tt.size, false); !errors.Is(err, tt.want) {
				t.Errorf("Page(%d, %d): expected %v, got %v", tt.page, tt.size, tt.want, err)
			}
		}
		if _, err := uc.Page(ctx, 1, MaxPageSize, false); err != nil {
			t.Errorf("expected max size to be accepted, got %v", err)
		}
	})
}

func TestPaginationUseCase_Cursor(t *testing.T) {
	ctx := context.Background()
	uc := NewPaginationUseCase(newBlogRepo(), discardLogger)

	first, err := uc.Cursor(ctx, "", 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(first.Items) != 4 || first.Items[0].ID != 11 {
		t.Fatalf("unexpected first page: %+v", first.Items)
	}
	if first.NextCursor == nil || *first.NextCursor != "7" {
		t.Fatalf("expected next cursor 7, got %v", first.NextCursor)
	}

	second, err := uc.Cursor(ctx, *first.NextCursor, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	wantIDs := []int64{6, 5, 3, 2}
	for i, id := range wantIDs {
		if second.Items[i].ID != id {
			t.Errorf("item %d: expected id %d, got %d", i, id, second.Items[i].ID)
		}
	}

	last, err := uc.Cursor(ctx, *second.NextCursor, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(last.Items) != 1 || last.NextCursor != nil {
		t.Errorf("expected a final short page without cursor, got %d items and %v", len(last.Items), last.NextCursor)
	}

	for _, bad := range []string{"abc", "0", "-3"} {
		if _, err := uc.Cursor(ctx, bad, 4); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("cursor %q: expected ErrInvalidCursor, got %v", bad, err)
		}
	}
	if _, err := uc.Cursor(ctx, "", 0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}
