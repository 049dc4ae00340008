package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"postboard/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// postColumns selects a post with its author and optional group resolved.
// Every listing shares it so the reverse-chronological ordering and the
// joined fields stay consistent across surfaces.
const postColumns = `
	p.id, p.author_id, p.group_id, p.text, p.image_url, p.image_key, p.created_at,
	u.username AS "author.username", u.display_name AS "author.display_name",
	g.title AS "group.title", g.slug AS "group.slug", g.description AS "group.description"
`

const postJoins = `
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN "groups" g ON g.id = p.group_id
`

// postRow flattens the joined columns; mapped back into model.Post below.
type postRow struct {
	ID        int64     `db:"id"`
	AuthorID  int64     `db:"author_id"`
	GroupID   *int64    `db:"group_id"`
	Text      string    `db:"text"`
	ImageURL  *string   `db:"image_url"`
	ImageKey  *string   `db:"image_key"`
	CreatedAt time.Time `db:"created_at"`

	AuthorUsername string  `db:"author.username"`
	AuthorDisplay  *string `db:"author.display_name"`

	GroupTitle       *string `db:"group.title"`
	GroupSlug        *string `db:"group.slug"`
	GroupDescription *string `db:"group.description"`
}

func (row postRow) toPost() model.Post {
	post := model.Post{
		ID:        row.ID,
		AuthorID:  row.AuthorID,
		GroupID:   row.GroupID,
		Text:      row.Text,
		ImageURL:  row.ImageURL,
		ImageKey:  row.ImageKey,
		CreatedAt: row.CreatedAt,
		Author: &model.UserSummary{
			ID:          row.AuthorID,
			Username:    row.AuthorUsername,
			DisplayName: row.AuthorDisplay,
		},
	}
	if row.GroupID != nil && row.GroupTitle != nil {
		post.Group = &model.Group{
			ID:          *row.GroupID,
			Title:       *row.GroupTitle,
			Slug:        *row.GroupSlug,
			Description: *row.GroupDescription,
		}
	}
	return post
}

// Create inserts a new post and fills in its id and timestamp.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (author_id, group_id, text, image_url, image_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		post.AuthorID,
		post.GroupID,
		post.Text,
		post.ImageURL,
		post.ImageKey,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a post. The creation timestamp
// and author never change.
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET text = $1, group_id = $2, image_url = $3, image_key = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		post.Text,
		post.GroupID,
		post.ImageURL,
		post.ImageKey,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// GetByID retrieves a single post with its author and group resolved.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + postJoins + ` WHERE p.id = $1`

	var row postRow
	err := r.db.GetContext(ctx, &row, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	post := row.toPost()
	return &post, nil
}

func (r *postRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Post, error) {
	query := `SELECT ` + postColumns + postJoins + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2`
	return r.selectPosts(ctx, query, limit, offset)
}

func (r *postRepository) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM posts`)
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]model.Post, error) {
	query := `SELECT ` + postColumns + postJoins + `
		WHERE p.group_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3`
	return r.selectPosts(ctx, query, groupID, limit, offset)
}

func (r *postRepository) CountByGroup(ctx context.Context, groupID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM posts WHERE group_id = $1`, groupID)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]model.Post, error) {
	query := `SELECT ` + postColumns + postJoins + `
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3`
	return r.selectPosts(ctx, query, authorID, limit, offset)
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID)
}

// ListFollowed returns posts whose author the given user follows.
func (r *postRepository) ListFollowed(ctx context.Context, followerID int64, limit, offset int) ([]model.Post, error) {
	query := `SELECT ` + postColumns + postJoins + `
		JOIN follows f ON f.author_id = p.author_id
		WHERE f.follower_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3`
	return r.selectPosts(ctx, query, followerID, limit, offset)
}

func (r *postRepository) CountFollowed(ctx context.Context, followerID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM posts p
		JOIN follows f ON f.author_id = p.author_id
		WHERE f.follower_id = $1
	`
	return r.count(ctx, query, followerID)
}

func (r *postRepository) selectPosts(ctx context.Context, query string, args ...interface{}) ([]model.Post, error) {
	var rows []postRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

func (r *postRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, query, args...)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}
