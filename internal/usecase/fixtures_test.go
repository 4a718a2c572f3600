package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/V4T54L/api-performance/internal/domain"
	"github.com/V4T54L/api-performance/internal/domain/mocks"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newBlogRepo returns twelve posts. Every fourth post is a draft, so posts
// 1,2,3,5,6,7,9,10,11 are published. Newer posts have larger ids.
func newBlogRepo() *mocks.MockPostRepository {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &mocks.MockPostRepository{}
	for i := int64(1); i <= 12; i++ {
		repo.Posts = append(repo.Posts, domain.Post{
			ID:        i,
			Title:     fmt.Sprintf("Post %d", i),
			Content:   "content",
			AuthorID:  1,
			Published: i%4 != 0,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	repo.Comments = []domain.Comment{
		{ID: 1, PostID: 1, AuthorName: "Alice", Content: "first"},
		{ID: 2, PostID: 1, AuthorName: "Bob", Content: "second"},
		{ID: 3, PostID: 2, AuthorName: "Alice", Content: "third"},
		{ID: 4, PostID: 2, AuthorName: "Diana", Content: "fourth"},
		{ID: 5, PostID: 3, AuthorName: "Bob", Content: "fifth"},
	}
	return repo
}

type recordedLog struct {
	message string
	fields  map[string]any
}

type recordingSubmitter struct {
	logs []recordedLog
}

func (r *recordingSubmitter) Log(message string, fields map[string]any) {
	r.logs = append(r.logs, recordedLog{message: message, fields: fields})
}
