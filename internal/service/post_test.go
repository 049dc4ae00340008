package service

import (
	"context"
	"errors"
	"testing"

	"postboard/internal/form"
	"postboard/internal/model"
	"postboard/internal/pagination"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================

type mockPostRepository struct {
	createFn        func(ctx context.Context, post *model.Post) error
	updateFn        func(ctx context.Context, post *model.Post) error
	getByIDFn       func(ctx context.Context, postID int64) (*model.Post, error)
	listAllFn       func(ctx context.Context, limit, offset int) ([]model.Post, error)
	countAllFn      func(ctx context.Context) (int, error)
	listByGroupFn   func(ctx context.Context, groupID int64, limit, offset int) ([]model.Post, error)
	countByGroupFn  func(ctx context.Context, groupID int64) (int, error)
	listByAuthorFn  func(ctx context.Context, authorID int64, limit, offset int) ([]model.Post, error)
	countByAuthorFn func(ctx context.Context, authorID int64) (int, error)
	listFollowedFn  func(ctx context.Context, followerID int64, limit, offset int) ([]model.Post, error)
	countFollowedFn func(ctx context.Context, followerID int64) (int, error)

	createCalls int
	updateCalls int
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) Update(ctx context.Context, post *model.Post) error {
	m.updateCalls++
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Post, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepository) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

func (m *mockPostRepository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]model.Post, error) {
	if m.listByGroupFn != nil {
		return m.listByGroupFn(ctx, groupID, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepository) CountByGroup(ctx context.Context, groupID int64) (int, error) {
	if m.countByGroupFn != nil {
		return m.countByGroupFn(ctx, groupID)
	}
	return 0, nil
}

func (m *mockPostRepository) ListByAuthor(ctx context.Context, authorID int64, limit, offset int) ([]model.Post, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, authorID, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepository) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	if m.countByAuthorFn != nil {
		return m.countByAuthorFn(ctx, authorID)
	}
	return 0, nil
}

func (m *mockPostRepository) ListFollowed(ctx context.Context, followerID int64, limit, offset int) ([]model.Post, error) {
	if m.listFollowedFn != nil {
		return m.listFollowedFn(ctx, followerID, limit, offset)
	}
	return nil, nil
}

func (m *mockPostRepository) CountFollowed(ctx context.Context, followerID int64) (int, error) {
	if m.countFollowedFn != nil {
		return m.countFollowedFn(ctx, followerID)
	}
	return 0, nil
}

type mockGroupRepository struct {
	getByIDFn   func(ctx context.Context, id int64) (*model.Group, error)
	getBySlugFn func(ctx context.Context, slug string) (*model.Group, error)
	listFn      func(ctx context.Context) ([]model.Group, error)
}

func (m *mockGroupRepository) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrGroupNotFound
}

func (m *mockGroupRepository) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, model.ErrGroupNotFound
}

func (m *mockGroupRepository) List(ctx context.Context) ([]model.Group, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockCommentRepository struct {
	createFn     func(ctx context.Context, comment *model.Comment) error
	listByPostFn func(ctx context.Context, postID int64) ([]model.Comment, error)

	createCalls int
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, comment)
	}
	return nil
}

func (m *mockCommentRepository) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	if m.listByPostFn != nil {
		return m.listByPostFn(ctx, postID)
	}
	return nil, nil
}

func newTestPostService(posts *mockPostRepository, users *mockUserRepository, groups *mockGroupRepository, comments *mockCommentRepository, follows *mockFollowRepository) *PostService {
	if posts == nil {
		posts = &mockPostRepository{}
	}
	if users == nil {
		users = &mockUserRepository{}
	}
	if groups == nil {
		groups = &mockGroupRepository{}
	}
	if comments == nil {
		comments = &mockCommentRepository{}
	}
	if follows == nil {
		follows = &mockFollowRepository{}
	}
	return NewPostService(posts, users, groups, comments, follows, nil)
}

type mockImageStore struct {
	deleteFn func(ctx context.Context, key string) error

	deleted []string
}

func (m *mockImageStore) DeleteObject(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestPostService_Create_EmptyText(t *testing.T) {
	mockPosts := &mockPostRepository{}
	svc := newTestPostService(mockPosts, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), 1, form.PostForm{Text: ""}, nil)

	if !errors.Is(err, model.ErrTextRequired) {
		t.Errorf("error = %v, want %v", err, model.ErrTextRequired)
	}

	// Nothing should be written for a rejected form
	if mockPosts.createCalls != 0 {
		t.Error("Create should not be called for empty text")
	}
}

func TestPostService_Create_WhitespaceTextAccepted(t *testing.T) {
	// The empty-text rule is deliberately narrow: a string of spaces
	// passes and gets stored as-is.
	mockPosts := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			post.ID = 7
			return nil
		},
	}
	svc := newTestPostService(mockPosts, nil, nil, nil, nil)

	post, err := svc.Create(context.Background(), 1, form.PostForm{Text: "   "}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Text != "   " {
		t.Errorf("text = %q, want %q", post.Text, "   ")
	}
}

func TestPostService_Create_UnknownGroup(t *testing.T) {
	groupID := int64(42)
	mockPosts := &mockPostRepository{}
	mockGroups := &mockGroupRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Group, error) {
			return nil, model.ErrGroupNotFound
		},
	}
	svc := newTestPostService(mockPosts, nil, mockGroups, nil, nil)

	_, err := svc.Create(context.Background(), 1, form.PostForm{Text: "hello", GroupID: &groupID}, nil)

	if !errors.Is(err, model.ErrGroupNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrGroupNotFound)
	}
	if mockPosts.createCalls != 0 {
		t.Error("Create should not be called for an unknown group")
	}
}

func TestPostService_Create_Success(t *testing.T) {
	groupID := int64(3)
	mockPosts := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			post.ID = 10
			return nil
		},
	}
	mockGroups := &mockGroupRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Group, error) {
			return &model.Group{ID: id, Title: "Cats", Slug: "cats"}, nil
		},
	}
	svc := newTestPostService(mockPosts, nil, mockGroups, nil, nil)

	upload := &model.UploadResult{URL: "https://cdn.example.com/posts/x.jpg", Key: "posts/x.jpg"}
	post, err := svc.Create(context.Background(), 5, form.PostForm{Text: "hello", GroupID: &groupID}, upload)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.ID != 10 {
		t.Errorf("id = %d, want 10", post.ID)
	}
	if post.AuthorID != 5 {
		t.Errorf("author_id = %d, want 5", post.AuthorID)
	}
	if post.GroupID == nil || *post.GroupID != groupID {
		t.Errorf("group_id = %v, want %d", post.GroupID, groupID)
	}
	if post.ImageURL == nil || *post.ImageURL != upload.URL {
		t.Errorf("image_url = %v, want %q", post.ImageURL, upload.URL)
	}
}

// =============================================================================
// EDIT TESTS
// =============================================================================

func TestPostService_Edit(t *testing.T) {
	existing := func() *model.Post {
		return &model.Post{ID: 1, AuthorID: 5, Text: "original"}
	}

	tests := []struct {
		name        string
		callerID    int64
		form        form.PostForm
		getByIDFn   func(ctx context.Context, postID int64) (*model.Post, error)
		wantErr     error
		wantUpdates int
	}{
		{
			name:     "author edits own post",
			callerID: 5,
			form:     form.PostForm{Text: "updated"},
			getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
				return existing(), nil
			},
			wantErr:     nil,
			wantUpdates: 1,
		},
		{
			name:     "non-author is rejected without touching the post",
			callerID: 99,
			form:     form.PostForm{Text: "hijacked"},
			getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
				return existing(), nil
			},
			wantErr:     model.ErrNotPostAuthor,
			wantUpdates: 0,
		},
		{
			name:     "unknown post",
			callerID: 5,
			form:     form.PostForm{Text: "updated"},
			getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
				return nil, model.ErrPostNotFound
			},
			wantErr:     model.ErrPostNotFound,
			wantUpdates: 0,
		},
		{
			name:     "empty text rejected",
			callerID: 5,
			form:     form.PostForm{Text: ""},
			getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
				return existing(), nil
			},
			wantErr:     model.ErrTextRequired,
			wantUpdates: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPosts := &mockPostRepository{getByIDFn: tt.getByIDFn}
			svc := newTestPostService(mockPosts, nil, nil, nil, nil)

			_, err := svc.Edit(context.Background(), 1, tt.callerID, tt.form, nil)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if mockPosts.updateCalls != tt.wantUpdates {
				t.Errorf("Update called %d times, want %d", mockPosts.updateCalls, tt.wantUpdates)
			}
		})
	}
}

// =============================================================================
// IMAGE CLEANUP TESTS
// =============================================================================

func newImageTestService(posts *mockPostRepository, images *mockImageStore) *PostService {
	return NewPostService(posts, &mockUserRepository{}, &mockGroupRepository{}, &mockCommentRepository{}, &mockFollowRepository{}, images)
}

func TestPostService_Edit_DeletesReplacedImage(t *testing.T) {
	oldKey := "posts/old.jpg"
	mockPosts := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 5, Text: "original", ImageKey: &oldKey}, nil
		},
	}
	images := &mockImageStore{}
	svc := newImageTestService(mockPosts, images)

	upload := &model.UploadResult{URL: "https://cdn.example.com/posts/new.jpg", Key: "posts/new.jpg"}
	post, err := svc.Edit(context.Background(), 1, 5, form.PostForm{Text: "updated"}, upload)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.ImageKey == nil || *post.ImageKey != upload.Key {
		t.Errorf("image_key = %v, want %q", post.ImageKey, upload.Key)
	}

	// The object the post no longer references must leave the bucket
	if len(images.deleted) != 1 || images.deleted[0] != oldKey {
		t.Errorf("deleted = %v, want [%q]", images.deleted, oldKey)
	}
}

func TestPostService_Edit_KeepsImageWithoutNewUpload(t *testing.T) {
	oldKey := "posts/old.jpg"
	mockPosts := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 5, Text: "original", ImageKey: &oldKey}, nil
		},
	}
	images := &mockImageStore{}
	svc := newImageTestService(mockPosts, images)

	post, err := svc.Edit(context.Background(), 1, 5, form.PostForm{Text: "updated"}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.ImageKey == nil || *post.ImageKey != oldKey {
		t.Errorf("image_key = %v, want %q", post.ImageKey, oldKey)
	}
	if len(images.deleted) != 0 {
		t.Errorf("deleted = %v, want none", images.deleted)
	}
}

func TestPostService_Edit_NonAuthorDiscardsUpload(t *testing.T) {
	// The upload happens before ownership is known, so a refused edit
	// has an object in the bucket that nothing will ever reference.
	mockPosts := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 5, Text: "original"}, nil
		},
	}
	images := &mockImageStore{}
	svc := newImageTestService(mockPosts, images)

	upload := &model.UploadResult{URL: "https://cdn.example.com/posts/stray.jpg", Key: "posts/stray.jpg"}
	_, err := svc.Edit(context.Background(), 1, 99, form.PostForm{Text: "hijacked"}, upload)

	if !errors.Is(err, model.ErrNotPostAuthor) {
		t.Errorf("error = %v, want %v", err, model.ErrNotPostAuthor)
	}
	if mockPosts.updateCalls != 0 {
		t.Error("Update should not be called for a non-author")
	}
	if len(images.deleted) != 1 || images.deleted[0] != upload.Key {
		t.Errorf("deleted = %v, want [%q]", images.deleted, upload.Key)
	}
}

func TestPostService_Create_UnknownGroupDiscardsUpload(t *testing.T) {
	groupID := int64(42)
	mockPosts := &mockPostRepository{}
	images := &mockImageStore{}
	svc := newImageTestService(mockPosts, images)

	upload := &model.UploadResult{URL: "https://cdn.example.com/posts/stray.jpg", Key: "posts/stray.jpg"}
	_, err := svc.Create(context.Background(), 1, form.PostForm{Text: "hello", GroupID: &groupID}, upload)

	if !errors.Is(err, model.ErrGroupNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrGroupNotFound)
	}
	if mockPosts.createCalls != 0 {
		t.Error("Create should not be called for an unknown group")
	}
	if len(images.deleted) != 1 || images.deleted[0] != upload.Key {
		t.Errorf("deleted = %v, want [%q]", images.deleted, upload.Key)
	}
}

// =============================================================================
// LISTING TESTS
// =============================================================================

func TestPostService_ListAll_ClampsPage(t *testing.T) {
	// 14 posts = 2 pages. Requesting page 99 must land on page 2 with
	// the matching offset, not an empty page 99.
	var gotLimit, gotOffset int
	mockPosts := &mockPostRepository{
		countAllFn: func(ctx context.Context) (int, error) {
			return 14, nil
		},
		listAllFn: func(ctx context.Context, limit, offset int) ([]model.Post, error) {
			gotLimit, gotOffset = limit, offset
			return make([]model.Post, 4), nil
		},
	}
	svc := newTestPostService(mockPosts, nil, nil, nil, nil)

	feed, err := svc.ListAll(context.Background(), 99)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.Pagination.Number != 2 {
		t.Errorf("page number = %d, want 2", feed.Pagination.Number)
	}
	if gotLimit != pagination.PageSize {
		t.Errorf("limit = %d, want %d", gotLimit, pagination.PageSize)
	}
	if gotOffset != pagination.PageSize {
		t.Errorf("offset = %d, want %d", gotOffset, pagination.PageSize)
	}
	if len(feed.Posts) != 4 {
		t.Errorf("posts on last page = %d, want 4", len(feed.Posts))
	}
}

func TestPostService_ListByGroup_UnknownSlug(t *testing.T) {
	mockGroups := &mockGroupRepository{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Group, error) {
			return nil, model.ErrGroupNotFound
		},
	}
	svc := newTestPostService(nil, nil, mockGroups, nil, nil)

	_, err := svc.ListByGroup(context.Background(), "no-such-group", 1)

	if !errors.Is(err, model.ErrGroupNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrGroupNotFound)
	}
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestPostService_Profile(t *testing.T) {
	author := &model.User{ID: 7, Username: "leo"}

	tests := []struct {
		name          string
		viewerID      *int64
		existsFn      func(ctx context.Context, followerID, authorID int64) (bool, error)
		wantFollowing bool
	}{
		{
			name:          "anonymous viewer never follows",
			viewerID:      nil,
			wantFollowing: false,
		},
		{
			name:     "signed-in follower",
			viewerID: int64Ptr(3),
			existsFn: func(ctx context.Context, followerID, authorID int64) (bool, error) {
				return followerID == 3 && authorID == 7, nil
			},
			wantFollowing: true,
		},
		{
			name:     "signed-in non-follower",
			viewerID: int64Ptr(4),
			existsFn: func(ctx context.Context, followerID, authorID int64) (bool, error) {
				return false, nil
			},
			wantFollowing: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := &mockUserRepository{
				getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
					return author, nil
				},
			}
			mockPosts := &mockPostRepository{
				countByAuthorFn: func(ctx context.Context, authorID int64) (int, error) {
					return 3, nil
				},
				listByAuthorFn: func(ctx context.Context, authorID int64, limit, offset int) ([]model.Post, error) {
					return make([]model.Post, 3), nil
				},
			}
			mockFollows := &mockFollowRepository{existsFn: tt.existsFn}
			svc := newTestPostService(mockPosts, mockUsers, nil, nil, mockFollows)

			page, err := svc.Profile(context.Background(), "leo", 1, tt.viewerID)

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.IsFollowing != tt.wantFollowing {
				t.Errorf("is_following = %v, want %v", page.IsFollowing, tt.wantFollowing)
			}
			if page.PostCount != 3 {
				t.Errorf("post_count = %d, want 3", page.PostCount)
			}
			if page.Author.Username != "leo" {
				t.Errorf("author = %q, want %q", page.Author.Username, "leo")
			}
		})
	}
}

func TestPostService_Profile_UnknownUser(t *testing.T) {
	mockUsers := &mockUserRepository{
		getByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, model.ErrUserNotFound
		},
	}
	svc := newTestPostService(nil, mockUsers, nil, nil, nil)

	_, err := svc.Profile(context.Background(), "ghost", 1, nil)

	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrUserNotFound)
	}
}

// =============================================================================
// DETAIL TESTS
// =============================================================================

func TestPostService_Detail(t *testing.T) {
	mockPosts := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, AuthorID: 5, Text: "hello"}, nil
		},
		countByAuthorFn: func(ctx context.Context, authorID int64) (int, error) {
			return 12, nil
		},
	}
	mockComments := &mockCommentRepository{
		listByPostFn: func(ctx context.Context, postID int64) ([]model.Comment, error) {
			return []model.Comment{{ID: 1, PostID: postID, Text: "first"}}, nil
		},
	}
	svc := newTestPostService(mockPosts, nil, nil, mockComments, nil)

	detail, err := svc.Detail(context.Background(), 1)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Post.ID != 1 {
		t.Errorf("post id = %d, want 1", detail.Post.ID)
	}
	if detail.PostCount != 12 {
		t.Errorf("post_count = %d, want 12", detail.PostCount)
	}
	if len(detail.Comments) != 1 {
		t.Errorf("comments = %d, want 1", len(detail.Comments))
	}
}

func TestPostService_Detail_NotFound(t *testing.T) {
	svc := newTestPostService(nil, nil, nil, nil, nil)

	_, err := svc.Detail(context.Background(), 404)

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
