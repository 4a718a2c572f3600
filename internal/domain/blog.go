package domain

import "time"

// Author writes posts.
type Author struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment belongs to a single post.
type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Tag labels posts through the post_tags association.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Post is a blog post. Comments, Tags and Author are only populated by the
// queries that load them.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	Published bool      `json:"published"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	Comments  []Comment `json:"comments,omitempty"`
	Tags      []Tag     `json:"tags,omitempty"`
	Author    *Author   `json:"author,omitempty"`
}

// Page is one page of an offset-paginated listing.
type Page struct {
	Items    []Post  `json:"items"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	Size     int     `json:"size"`
	Pages    int     `json:"pages"`
	NextPage *string `json:"next_page"`
	PrevPage *string `json:"prev_page"`
}

// CursorPage is one page of a keyset-paginated listing.
type CursorPage struct {
	Items      []Post  `json:"items"`
	NextCursor *string `json:"next_cursor"`
}
