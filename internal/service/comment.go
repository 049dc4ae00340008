package service

import (
	"context"
	"fmt"

	"postboard/internal/model"
	"postboard/internal/repository"
)

// CommentService adds comments to posts. Comments are immutable once
// written; there is no edit or delete path.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// Add creates a comment on the post. Empty text (the empty string exactly)
// is rejected before anything is written.
func (s *CommentService) Add(ctx context.Context, postID, authorID int64, text string) (*model.Comment, error) {
	if text == "" {
		return nil, model.ErrCommentTextRequired
	}

	// Verify the post exists so a comment never dangles.
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	return comment, nil
}
