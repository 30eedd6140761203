package services

import (
	"fmt"
	"sync"

	"communityboard/app/models"
	"communityboard/app/repositories"
)

// NewServices builds the post and comment services of one board. They share
// a lock, so a post delete cannot interleave with a comment written to it.
func NewServices(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository) (*PostService, *CommentService) {
	mutex := &sync.Mutex{}

	posts := NewPostService(postRepo, commentRepo)
	posts.mutex = mutex
	comments := NewCommentService(commentRepo, postRepo)
	comments.mutex = mutex
	return posts, comments
}

func visibleComments(commentRepo repositories.CommentRepository, postID int) (int, error) {
	comments, err := commentRepo.ListByPost(postID)
	if err != nil {
		return 0, fmt.Errorf("failed to get comments: %w", err)
	}
	n := 0
	for _, c := range comments {
		if !c.Deleted {
			n++
		}
	}
	return n, nil
}

// refreshHot stores the post again when its hot flag changed.
func refreshHot(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, post *models.Post) error {
	n, err := visibleComments(commentRepo, post.ID)
	if err != nil {
		return err
	}
	if !post.UpdateHot(n) {
		return nil
	}
	if err := postRepo.Update(post); err != nil {
		return fmt.Errorf("failed to update post %d: %w", post.ID, err)
	}
	return nil
}
