package repository

import (
	"context"
	"time"

	"postboard/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

type GroupRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.Post, error)
	CountAll(ctx context.Context) (int, error)
	ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]model.Post, error)
	CountByGroup(ctx context.Context, groupID int64) (int, error)
	ListByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]model.Post, error)
	CountByAuthor(ctx context.Context, authorID int64) (int, error)
	// Followed listings: posts whose author the given user follows.
	ListFollowed(ctx context.Context, followerID int64, limit, offset int) ([]model.Post, error)
	CountFollowed(ctx context.Context, followerID int64) (int, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postID int64) ([]model.Comment, error)
}

type FollowRepository interface {
	// Upsert creates the edge if absent. Returns true if a row was inserted.
	Upsert(ctx context.Context, followerID, authorID int64) (bool, error)
	// Delete removes the edge. Removing a non-existent edge is a no-op.
	Delete(ctx context.Context, followerID, authorID int64) error
	Exists(ctx context.Context, followerID, authorID int64) (bool, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	// DeleteExpired removes tokens whose expiry predates the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
