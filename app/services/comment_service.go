package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"communityboard/app/models"
	"communityboard/app/repositories"
	"communityboard/app/thread"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository

	// mutex serializes read-modify-write sequences on comments.
	mutex *sync.Mutex
	now   func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		mutex:       &sync.Mutex{},
		now:         time.Now,
	}
}

// organizeFor orders comments for display and sets Liked for the viewer.
// The returned comments are copies.
func organizeFor(comments []*models.Comment, viewerID string) []*models.Comment {
	organized := thread.Organize(comments)
	for i, c := range organized {
		organized[i] = c.ViewedBy(viewerID)
	}
	return organized
}

// Thread returns the organized comments of a post as seen by the viewer.
func (s *CommentService) Thread(postID int, viewer models.Viewer) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return nil, fmt.Errorf("post not found: %w", err)
	}
	return s.thread(postID, viewer.ID)
}

func (s *CommentService) thread(postID int, viewerID string) ([]*models.Comment, error) {
	comments, err := s.commentRepo.ListByPost(postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	return organizeFor(comments, viewerID), nil
}

// GetComment retrieves a comment by ID
func (s *CommentService) GetComment(id int, viewer models.Viewer) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return comment.ViewedBy(viewer.ID), nil
}

// Submit adds a comment to a post. With replyTo set, the new comment answers
// that comment, which may be any comment of the same post. It returns the new
// comment and the re-organized thread.
func (s *CommentService) Submit(postID int, viewer models.Viewer, content string, replyTo *int) (*models.Comment, []*models.Comment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, nil, fmt.Errorf("post not found: %w", err)
	}

	comment := &models.Comment{
		Author:    viewer.Name,
		AuthorID:  viewer.ID,
		Content:   strings.TrimSpace(content),
		CreatedAt: s.now(),
	}
	if err := comment.SetPost(post); err != nil {
		return nil, nil, err
	}

	if replyTo != nil {
		target, err := s.commentRepo.GetByID(*replyTo)
		if err != nil {
			return nil, nil, fmt.Errorf("reply target %d: %w", *replyTo, err)
		}
		if target.PostID != postID {
			return nil, nil, fmt.Errorf("reply target %d: %w", *replyTo, repositories.ErrNotFound)
		}
		parentID := target.ID
		comment.ParentID = &parentID
	}

	if err := comment.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid comment: %w", err)
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, nil, fmt.Errorf("failed to create comment: %w", err)
	}
	if err := refreshHot(s.postRepo, s.commentRepo, post); err != nil {
		return nil, nil, err
	}

	organized, err := s.thread(postID, viewer.ID)
	if err != nil {
		return nil, nil, err
	}
	return comment.ViewedBy(viewer.ID), organized, nil
}

// Delete removes the viewer's comment and returns the re-organized thread.
// A comment that still has replies becomes a tombstone; otherwise it is
// removed, together with any tombstoned ancestors left without replies.
func (s *CommentService) Delete(id int, viewer models.Viewer) ([]*models.Comment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	comment, err := s.commentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, ErrAlreadyDeleted
	}
	if !comment.WrittenBy(viewer.ID) {
		return nil, fmt.Errorf("%w: comment %d belongs to another user", ErrForbidden, id)
	}

	comments, err := s.commentRepo.ListByPost(comment.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	replies := make(map[int]int, len(comments))
	byID := make(map[int]*models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
		if c.ParentID != nil {
			replies[*c.ParentID]++
		}
	}

	if replies[id] > 0 {
		comment.Tombstone()
		if err := s.commentRepo.Update(comment); err != nil {
			return nil, fmt.Errorf("failed to delete comment %d: %w", id, err)
		}
		return s.afterDelete(comment.PostID, viewer.ID)
	}

	if err := s.commentRepo.Delete(id); err != nil {
		return nil, fmt.Errorf("failed to delete comment %d: %w", id, err)
	}

	// A tombstone is only kept while it anchors replies.
	visited := map[int]bool{id: true}
	for parentID := comment.ParentID; parentID != nil; {
		replies[*parentID]--
		parent, ok := byID[*parentID]
		if !ok || visited[parent.ID] || !parent.Deleted || replies[parent.ID] > 0 {
			break
		}
		visited[parent.ID] = true
		if err := s.commentRepo.Delete(parent.ID); err != nil {
			return nil, fmt.Errorf("failed to remove tombstone %d: %w", parent.ID, err)
		}
		parentID = parent.ParentID
	}

	return s.afterDelete(comment.PostID, viewer.ID)
}

// afterDelete cools the post down if it lost its hot comment count and
// returns the remaining thread.
func (s *CommentService) afterDelete(postID int, viewerID string) ([]*models.Comment, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, fmt.Errorf("post not found: %w", err)
	}
	if err := refreshHot(s.postRepo, s.commentRepo, post); err != nil {
		return nil, err
	}
	return s.thread(postID, viewerID)
}

// ToggleLike flips the viewer's like on a comment. Authors cannot like their
// own comments and tombstones cannot be liked.
func (s *CommentService) ToggleLike(id int, viewer models.Viewer) (*models.Comment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if viewer.ID == "" {
		return nil, fmt.Errorf("%w: anonymous viewers cannot like comments", ErrInvalidInput)
	}

	comment, err := s.commentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, fmt.Errorf("%w: comment %d is deleted", ErrInvalidInput, id)
	}
	if comment.WrittenBy(viewer.ID) {
		return nil, fmt.Errorf("%w: cannot like your own comment", ErrForbidden)
	}

	comment.ToggleLike(viewer.ID)
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment %d: %w", id, err)
	}
	return comment.ViewedBy(viewer.ID), nil
}
