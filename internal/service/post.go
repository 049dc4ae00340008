package service

import (
	"context"
	"fmt"
	"log"

	"postboard/internal/form"
	"postboard/internal/model"
	"postboard/internal/pagination"
	"postboard/internal/repository"
)

// PostService implements the read and write operations over posts: the
// four listing surfaces, the detail view, and create/edit.
type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	media       ImageStore
}

// NewPostService wires the post service. media may be nil when image
// storage is not configured; image cleanup then becomes a no-op.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	groupRepo repository.GroupRepository,
	commentRepo repository.CommentRepository,
	followRepo repository.FollowRepository,
	media ImageStore,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		groupRepo:   groupRepo,
		commentRepo: commentRepo,
		followRepo:  followRepo,
		media:       media,
	}
}

// ListAll returns one page of the global feed, newest first.
func (s *PostService) ListAll(ctx context.Context, pageNum int) (*model.FeedPage, error) {
	total, err := s.postRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	page := pagination.Paginate(total, pagination.PageSize, pageNum)
	posts, err := s.postRepo.ListAll(ctx, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}

	return &model.FeedPage{Posts: posts, Pagination: page}, nil
}

// ListByGroup returns one page of a group's feed, newest first.
func (s *PostService) ListByGroup(ctx context.Context, slug string, pageNum int) (*model.GroupPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	total, err := s.postRepo.CountByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	page := pagination.Paginate(total, pagination.PageSize, pageNum)
	posts, err := s.postRepo.ListByGroup(ctx, group.ID, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}

	return &model.GroupPage{
		Group:    *group,
		FeedPage: model.FeedPage{Posts: posts, Pagination: page},
	}, nil
}

// Profile returns one page of an author's feed plus the author info, their
// total post count, and whether the viewer follows them. An unauthenticated
// viewer (nil viewerID) never follows anyone.
func (s *PostService) Profile(ctx context.Context, username string, pageNum int, viewerID *int64) (*model.ProfilePage, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	total, err := s.postRepo.CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	page := pagination.Paginate(total, pagination.PageSize, pageNum)
	posts, err := s.postRepo.ListByAuthor(ctx, author.ID, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != nil {
		following, err = s.followRepo.Exists(ctx, *viewerID, author.ID)
		if err != nil {
			return nil, err
		}
	}

	return &model.ProfilePage{
		Author: model.UserSummary{
			ID:          author.ID,
			Username:    author.Username,
			DisplayName: author.DisplayName,
		},
		PostCount:   total,
		IsFollowing: following,
		FeedPage:    model.FeedPage{Posts: posts, Pagination: page},
	}, nil
}

// Detail returns a post with its comments in creation order and the
// author's total post count.
func (s *PostService) Detail(ctx context.Context, postID int64) (*model.PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	postCount, err := s.postRepo.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}

	return &model.PostDetail{
		Post:      *post,
		PostCount: postCount,
		Comments:  comments,
	}, nil
}

// Groups returns the group choices for the post form.
func (s *PostService) Groups(ctx context.Context) ([]model.Group, error) {
	return s.groupRepo.List(ctx)
}

// Create persists a new post for the author. The text must be non-empty
// (the empty string exactly; the form layer applies the same rule before
// the request reaches here). Returns the created post with its id set.
// An image uploaded for a refused create is removed from the bucket.
func (s *PostService) Create(ctx context.Context, authorID int64, f form.PostForm, image *model.UploadResult) (*model.Post, error) {
	if f.Text == "" {
		s.discardUpload(ctx, image)
		return nil, model.ErrTextRequired
	}

	if f.GroupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *f.GroupID); err != nil {
			s.discardUpload(ctx, image)
			return nil, err
		}
	}

	post := &model.Post{
		AuthorID: authorID,
		GroupID:  f.GroupID,
		Text:     f.Text,
	}
	if image != nil {
		post.ImageURL = &image.URL
		post.ImageKey = &image.Key
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discardUpload(ctx, image)
		return nil, fmt.Errorf("create post: %w", err)
	}

	return post, nil
}

// Edit updates a post's text, group, and image. Only the author may edit;
// any other caller gets ErrNotPostAuthor, which the HTTP layer turns into
// a plain redirect to the detail view rather than an error response.
// When the edit goes through with a new image the replaced object is
// removed from the bucket; when the edit is refused the fresh upload is.
func (s *PostService) Edit(ctx context.Context, postID, callerID int64, f form.PostForm, image *model.UploadResult) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		s.discardUpload(ctx, image)
		return nil, err
	}

	if post.AuthorID != callerID {
		s.discardUpload(ctx, image)
		return nil, model.ErrNotPostAuthor
	}

	if f.Text == "" {
		s.discardUpload(ctx, image)
		return nil, model.ErrTextRequired
	}

	if f.GroupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *f.GroupID); err != nil {
			s.discardUpload(ctx, image)
			return nil, err
		}
	}

	var replacedKey *string
	post.Text = f.Text
	post.GroupID = f.GroupID
	if image != nil {
		replacedKey = post.ImageKey
		post.ImageURL = &image.URL
		post.ImageKey = &image.Key
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		s.discardUpload(ctx, image)
		return nil, fmt.Errorf("update post: %w", err)
	}

	if replacedKey != nil && s.media != nil && *replacedKey != image.Key {
		if err := s.media.DeleteObject(ctx, *replacedKey); err != nil {
			log.Printf("[PostService] Failed to delete replaced image: key=%s err=%v", *replacedKey, err)
		}
	}

	return post, nil
}

// discardUpload removes an object that was uploaded ahead of a write
// the service then refused; otherwise the bucket accumulates orphans.
func (s *PostService) discardUpload(ctx context.Context, image *model.UploadResult) {
	if image == nil || s.media == nil {
		return
	}
	if err := s.media.DeleteObject(ctx, image.Key); err != nil {
		log.Printf("[PostService] Failed to delete discarded upload: key=%s err=%v", image.Key, err)
	}
}
