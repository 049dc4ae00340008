package service

import (
	"context"
	"log"

	"postboard/internal/model"
	"postboard/internal/pagination"
	"postboard/internal/repository"
)

// FollowService manages the directed follower edges and the followed feed.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		postRepo:   postRepo,
	}
}

// Follow creates the edge follower -> author. Following yourself is a
// silent no-op, and following an already-followed author leaves exactly
// one edge. Returns model.ErrUserNotFound for an unknown author.
func (s *FollowService) Follow(ctx context.Context, followerID int64, authorUsername string) error {
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return err
	}

	if author.ID == followerID {
		return nil
	}

	inserted, err := s.followRepo.Upsert(ctx, followerID, author.ID)
	if err != nil {
		return err
	}

	if inserted {
		log.Printf("[FollowService] Follow created: follower=%d author=%d", followerID, author.ID)
	}
	return nil
}

// Unfollow removes the edge follower -> author. Removing an edge that was
// never there is a silent no-op. Returns model.ErrUserNotFound for an
// unknown author.
func (s *FollowService) Unfollow(ctx context.Context, followerID int64, authorUsername string) error {
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return err
	}

	return s.followRepo.Delete(ctx, followerID, author.ID)
}

// IsFollowing reports whether the viewer follows the author. A nil viewer
// (unauthenticated) follows no one.
func (s *FollowService) IsFollowing(ctx context.Context, viewerID *int64, authorID int64) (bool, error) {
	if viewerID == nil {
		return false, nil
	}
	return s.followRepo.Exists(ctx, *viewerID, authorID)
}

// Followed returns one page of posts by authors the user follows, newest
// first.
func (s *FollowService) Followed(ctx context.Context, userID int64, pageNum int) (*model.FeedPage, error) {
	total, err := s.postRepo.CountFollowed(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := pagination.Paginate(total, pagination.PageSize, pageNum)
	posts, err := s.postRepo.ListFollowed(ctx, userID, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}

	return &model.FeedPage{Posts: posts, Pagination: page}, nil
}
