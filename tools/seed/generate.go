package main

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/V4T54L/api-performance/internal/domain"
)

var (
	firstNames   = []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Edward", "Fiona"}
	lastNames    = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}
	commenters   = []string{"Alice", "Bob", "Charlie", "Diana", "Edward", "Fiona", "George", "Hannah"}
	tagNames     = []string{"python", "javascript", "java", "go", "rust", "ruby", "php", "scala", "web", "mobile", "frontend", "backend", "database", "cloud", "devops", "api", "security", "testing", "performance", "machine-learning", "data-science"}
	wordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type dataset struct {
	authors  []domain.Author
	posts    []domain.Post
	comments []domain.Comment
	tags     []domain.Tag
}

type generator struct {
	rng  *rand.Rand
	base time.Time
}

func newGenerator(seed int64) *generator {
	return &generator{
		rng:  rand.New(rand.NewSource(seed)),
		base: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// generate builds a dataset with ids starting at 1. Roughly 80% of posts are
// published, each has up to maxComments comments and between one and five tags.
func (g *generator) generate(numAuthors, numPosts, maxComments int) dataset {
	var d dataset

	for i, name := range tagNames {
		d.tags = append(d.tags, domain.Tag{ID: int64(i + 1), Name: name})
	}

	for i := 1; i <= numAuthors; i++ {
		bio := "Bio for author " + itoa(i) + ". " + g.words(20, 20, 3, 10)
		d.authors = append(d.authors, domain.Author{
			ID:        int64(i),
			Name:      pick(g.rng, firstNames) + " " + pick(g.rng, lastNames),
			Email:     "user" + itoa(i) + "@example.com",
			Bio:       &bio,
			CreatedAt: g.timestamp(),
		})
	}

	var commentID int64
	for i := 1; i <= numPosts; i++ {
		p := domain.Post{
			ID:        int64(i),
			Title:     "Post " + itoa(i) + ": " + g.words(3, 8, 3, 8),
			Content:   "Content for post " + itoa(i) + ". " + g.words(50, 200, 3, 10),
			AuthorID:  int64(g.rng.Intn(max(numAuthors, 1)) + 1),
			Published: g.rng.Float64() > 0.2,
			Views:     int64(g.rng.Intn(10001)),
			CreatedAt: g.timestamp(),
		}

		for _, idx := range g.rng.Perm(len(d.tags))[:g.rng.Intn(5)+1] {
			p.Tags = append(p.Tags, d.tags[idx])
		}

		for n := g.rng.Intn(maxComments + 1); n > 0; n-- {
			commentID++
			d.comments = append(d.comments, domain.Comment{
				ID:         commentID,
				PostID:     p.ID,
				AuthorName: pick(g.rng, commenters),
				Content:    "Comment " + itoa(int(commentID)) + ". " + g.words(5, 20, 3, 10),
				CreatedAt:  p.CreatedAt.Add(time.Duration(g.rng.Intn(72*60)) * time.Minute),
			})
		}
		d.posts = append(d.posts, p)
	}
	return d
}

// words returns between minWords and maxWords random words, each between
// minLen and maxLen characters long.
func (g *generator) words(minWords, maxWords, minLen, maxLen int) string {
	n := minWords + g.rng.Intn(maxWords-minWords+1)
	parts := make([]string, n)
	for i := range parts {
		b := make([]byte, minLen+g.rng.Intn(maxLen-minLen+1))
		for j := range b {
			b[j] = wordAlphabet[g.rng.Intn(len(wordAlphabet))]
		}
		parts[i] = string(b)
	}
	return strings.Join(parts, " ")
}

// timestamp returns a second-precision time within 2023.
func (g *generator) timestamp() time.Time {
	return g.base.Add(time.Duration(g.rng.Int63n(int64(365*24*time.Hour)/int64(time.Second))) * time.Second)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func itoa(i int) string { return strconv.Itoa(i) }
