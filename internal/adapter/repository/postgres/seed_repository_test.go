package postgres

import (
	"testing"

	"github.com/V4T54L/api-performance/internal/domain"
)

func TestPostTagLinks(t *testing.T) {
	posts := []domain.Post{
		{ID: 1, Tags: []domain.Tag{{ID: 1}, {ID: 2}, {ID: 1}}},
		{ID: 2},
		{ID: 3, Tags: []domain.Tag{{ID: 2}}},
	}

	got := postTagLinks(posts)
	want := [][2]int64{{1, 1}, {1, 2}, {3, 2}}
	if len(got) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("link %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestPostTagLinks_Empty(t *testing.T) {
	if links := postTagLinks(nil); len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}
