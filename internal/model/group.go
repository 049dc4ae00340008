package model

import "errors"

// Group is a named category that posts may optionally belong to.
// The slug is the stable URL identifier.
type Group struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Slug        string `db:"slug" json:"slug"`
	Description string `db:"description" json:"description"`
}

var (
	// ErrGroupNotFound is returned when no group has the requested slug or id
	ErrGroupNotFound = errors.New("group not found")
)
