package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. Comments are immutable once created.
type Comment struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"post_id"`
	AuthorID  int64        `db:"author_id" json:"-"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
}

// Comment errors
var (
	ErrCommentTextRequired = errors.New("comment text is required")
)
