package model

import "time"

// Follow is a directed edge: follower sees the author's posts in their
// followed feed. At most one edge exists per (follower, author) pair.
type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	AuthorID   int64     `db:"author_id" json:"author_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
