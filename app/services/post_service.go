package services

import (
	"fmt"
	"sync"
	"time"

	"communityboard/app/models"
	"communityboard/app/repositories"
)

// PostService handles business logic for board posts
type PostService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository

	mutex *sync.Mutex
	now   func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		mutex:       &sync.Mutex{},
		now:         time.Now,
	}
}

// CreatePost files a new post written by the viewer.
func (s *PostService) CreatePost(in models.PostInput, viewer models.Viewer) (*models.Post, error) {
	in.Normalize()
	if !in.Valid() {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}

	post := &models.Post{
		Author:    viewer.Name,
		AuthorID:  viewer.ID,
		CreatedAt: s.now(),
	}
	post.Apply(in)
	post.BeforeCreate()

	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post.ViewedBy(viewer.ID), nil
}

// GetPost retrieves a post with its organized comment thread
func (s *PostService) GetPost(id int, viewer models.Viewer) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	viewed := post.ViewedBy(viewer.ID)
	viewed.AttachComments(organizeFor(comments, viewer.ID))
	return viewed, nil
}

// ListPosts retrieves a page of posts, newest first. The hot category lists
// hot posts of every board; any other category that is not a board lists
// every post.
func (s *PostService) ListPosts(category models.Category, page, perPage int, viewer models.Viewer) ([]*models.Post, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if category != models.CategoryHot && !category.Valid() {
		category = ""
	}

	offset := (page - 1) * perPage
	posts, err := s.postRepo.List(category, perPage, offset)
	if err != nil {
		return nil, err
	}

	listed := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		comments, err := s.commentRepo.ListByPost(post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get comments for post %d: %w", post.ID, err)
		}
		viewed := post.ViewedBy(viewer.ID)
		viewed.AttachComments(comments)
		viewed.Comments = nil
		listed = append(listed, viewed)
	}
	return listed, nil
}

// UpdatePost replaces the title, content and images of the viewer's post. The
// category the post was filed under is kept.
func (s *PostService) UpdatePost(id int, in models.PostInput, viewer models.Viewer) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !existing.WrittenBy(viewer.ID) {
		return nil, fmt.Errorf("%w: post %d belongs to another user", ErrForbidden, id)
	}

	in.Normalize()
	if !in.Valid() {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}

	if !in.Changed(existing) {
		return existing.ViewedBy(viewer.ID), nil
	}

	existing.Apply(in)
	existing.MarkEdited(s.now())

	if err := existing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}
	if err := s.postRepo.Update(existing); err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	return existing.ViewedBy(viewer.ID), nil
}

// DeletePost deletes the viewer's post and all its comments
func (s *PostService) DeletePost(id int, viewer models.Viewer) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, err := s.postRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !existing.WrittenBy(viewer.ID) {
		return fmt.Errorf("%w: post %d belongs to another user", ErrForbidden, id)
	}

	if err := s.commentRepo.DeleteByPost(id); err != nil {
		return fmt.Errorf("failed to delete comments of post %d: %w", id, err)
	}
	return s.postRepo.Delete(id)
}

// TogglePostLike flips the viewer's like on a post and recomputes its hot
// flag. Unlike comments, authors may like their own posts.
func (s *PostService) TogglePostLike(id int, viewer models.Viewer) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if viewer.ID == "" {
		return nil, fmt.Errorf("%w: anonymous viewers cannot like posts", ErrInvalidInput)
	}

	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	post.ToggleLike(viewer.ID)
	n, err := visibleComments(s.commentRepo, id)
	if err != nil {
		return nil, err
	}
	post.UpdateHot(n)
	if err := s.postRepo.Update(post); err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	return post.ViewedBy(viewer.ID), nil
}
