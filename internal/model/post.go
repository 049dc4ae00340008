package model

import (
	"errors"
	"time"

	"postboard/internal/pagination"
)

// Post represents a single blog entry.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	AuthorID  int64     `db:"author_id" json:"-"`
	GroupID   *int64    `db:"group_id" json:"-"`
	Text      string    `db:"text" json:"text"`
	ImageURL  *string   `db:"image_url" json:"image_url"`
	ImageKey  *string   `db:"image_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Joined fields (not in posts table)
	Author *UserSummary `json:"author,omitempty"`
	Group  *Group       `json:"group,omitempty"`
}

// FeedPage is a rendered listing page: one slice of the reverse-chronological
// feed plus pagination metadata.
type FeedPage struct {
	Posts      []Post          `json:"posts"`
	Pagination pagination.Page `json:"pagination"`
}

// GroupPage is the group listing surface: the group info plus its feed slice.
type GroupPage struct {
	Group Group `json:"group"`
	FeedPage
}

// ProfilePage is the author listing surface.
type ProfilePage struct {
	Author      UserSummary `json:"author"`
	PostCount   int         `json:"post_count"`
	IsFollowing bool        `json:"is_following"`
	FeedPage
}

// PostDetail is the detail surface: the post, its comments in creation order,
// the author's total post count, and a blank comment form for rendering.
type PostDetail struct {
	Post      Post       `json:"post"`
	PostCount int        `json:"post_count"`
	Comments  []Comment  `json:"comments"`
	Form      BlankField `json:"form"`
}

// BlankField is the empty comment form rendered on the detail page.
type BlankField struct {
	Text string `json:"text"`
}

// Post errors
var (
	ErrPostNotFound  = errors.New("post not found")
	ErrNotPostAuthor = errors.New("not the author of this post")
	ErrTextRequired  = errors.New("post text is required")
)
