package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"communityboard/app/models"
	"communityboard/app/repositories"
	"communityboard/app/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPostServices(t *testing.T) (*PostService, *CommentService) {
	t.Helper()
	posts := memory.NewPostRepository()
	comments := memory.NewCommentRepository()

	postService, commentService := NewServices(posts, comments)
	postService.now = steppingClock()
	commentService.now = steppingClock()
	return postService, commentService
}

func TestPostServiceCreate(t *testing.T) {
	service, _ := newPostServices(t)

	t.Run("create post", func(t *testing.T) {
		post, err := service.CreatePost(models.PostInput{
			Title:    "  Hello board ",
			Content:  " First post ",
			Category: models.CategoryHot,
			Images:   []string{"1.png", "2.png", "3.png", "4.png", "5.png", "6.png"},
		}, alice)
		require.NoError(t, err)

		assert.Equal(t, 1, post.ID)
		assert.Equal(t, "Hello board", post.Title)
		assert.Equal(t, "First post", post.Content)
		assert.Equal(t, models.CategoryGeneral, post.Category)
		assert.Len(t, post.Images, models.MaxImages)
		assert.Equal(t, "Alice", post.Author)
		assert.Equal(t, "alice", post.AuthorID)
		assert.False(t, post.IsHot)
		assert.Zero(t, post.LikeCount)
		assert.Nil(t, post.EditedAt)
		assert.False(t, post.CreatedAt.IsZero())
	})

	t.Run("promotion board", func(t *testing.T) {
		post, err := service.CreatePost(models.PostInput{Title: "Sale", Content: "Cheap", Category: models.CategoryPromotion}, alice)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryPromotion, post.Category)
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input models.PostInput
		}{
			{name: "blank title", input: models.PostInput{Title: "  ", Content: "body"}},
			{name: "blank content", input: models.PostInput{Title: "title", Content: "\t"}},
			{name: "unknown board", input: models.PostInput{Title: "title", Content: "body", Category: "news"}},
			{name: "title too long", input: models.PostInput{Title: fmt.Sprintf("%0101d", 0), Content: "body"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := service.CreatePost(tt.input, alice)
				assert.Error(t, err)
				assert.True(t, IsValidation(err), "expected validation error, got %v", err)
			})
		}
	})
}

func TestPostServiceGet(t *testing.T) {
	service, comments := newPostServices(t)

	post, err := service.CreatePost(models.PostInput{Title: "Thread", Content: "Body"}, alice)
	require.NoError(t, err)

	r1, _, err := comments.Submit(post.ID, bob, "first", nil)
	require.NoError(t, err)
	r2, _, err := comments.Submit(post.ID, carol, "second", nil)
	require.NoError(t, err)
	c1, _, err := comments.Submit(post.ID, alice, "reply", &r1.ID)
	require.NoError(t, err)
	_, err = comments.Delete(r2.ID, carol)
	require.NoError(t, err)

	got, err := service.GetPost(post.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, []int{r1.ID, c1.ID}, commentIDs(got.Comments))
	assert.Equal(t, 2, got.CommentCount)

	_, err = service.GetPost(999, bob)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPostServiceUpdate(t *testing.T) {
	service, _ := newPostServices(t)

	post, err := service.CreatePost(models.PostInput{
		Title:    "Original",
		Content:  "Original body",
		Category: models.CategoryPromotion,
		Images:   []string{"a.png"},
	}, alice)
	require.NoError(t, err)

	t.Run("author edits", func(t *testing.T) {
		updated, err := service.UpdatePost(post.ID, models.PostInput{
			Title:    " Edited ",
			Content:  "Edited body",
			Category: models.CategoryGeneral,
			Images:   []string{"a.png", "b.png"},
		}, alice)
		require.NoError(t, err)

		assert.Equal(t, "Edited", updated.Title)
		assert.Equal(t, "Edited body", updated.Content)
		assert.Equal(t, models.CategoryPromotion, updated.Category)
		assert.Equal(t, post.Images[0].ID, updated.Images[0].ID)
		assert.Len(t, updated.Images, 2)
		assert.True(t, updated.CreatedAt.Equal(post.CreatedAt))
		require.NotNil(t, updated.EditedAt)
		assert.True(t, updated.EditedAt.After(post.CreatedAt))

		stored, err := service.GetPost(post.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, "Edited", stored.Title)
	})

	t.Run("someone else", func(t *testing.T) {
		_, err := service.UpdatePost(post.ID, models.PostInput{Title: "Mine now", Content: "x"}, bob)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid form", func(t *testing.T) {
		_, err := service.UpdatePost(post.ID, models.PostInput{Title: "", Content: "x"}, alice)
		assert.True(t, IsValidation(err))
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := service.UpdatePost(999, models.PostInput{Title: "t", Content: "c"}, alice)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestPostServiceUpdateUnchanged(t *testing.T) {
	service, _ := newPostServices(t)

	post, err := service.CreatePost(models.PostInput{Title: "Same", Content: "Body", Images: []string{"a.png"}}, alice)
	require.NoError(t, err)

	updated, err := service.UpdatePost(post.ID, models.PostInput{Title: " Same", Content: "Body ", Images: []string{"a.png"}}, alice)
	require.NoError(t, err)
	assert.Nil(t, updated.EditedAt)
	assert.Equal(t, post.Images, updated.Images)
}

func TestPostServiceDelete(t *testing.T) {
	service, comments := newPostServices(t)

	post, err := service.CreatePost(models.PostInput{Title: "Doomed", Content: "Body"}, alice)
	require.NoError(t, err)
	comment, _, err := comments.Submit(post.ID, bob, "soon gone", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, service.DeletePost(post.ID, bob), ErrForbidden)

	require.NoError(t, service.DeletePost(post.ID, alice))

	_, err = service.GetPost(post.ID, alice)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = comments.GetComment(comment.ID, bob)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPostServiceList(t *testing.T) {
	service, comments := newPostServices(t)

	for i := 1; i <= 5; i++ {
		category := models.CategoryGeneral
		if i%2 == 0 {
			category = models.CategoryPromotion
		}
		post, err := service.CreatePost(models.PostInput{Title: fmt.Sprintf("Post %d", i), Content: "Body", Category: category}, alice)
		require.NoError(t, err)
		if i == 5 {
			_, _, err := comments.Submit(post.ID, bob, "hi", nil)
			require.NoError(t, err)
		}
	}

	tests := []struct {
		name     string
		category models.Category
		page     int
		perPage  int
		expected []int
	}{
		{name: "defaults", page: 0, perPage: 0, expected: []int{5, 4, 3, 2, 1}},
		{name: "second page", page: 2, perPage: 2, expected: []int{3, 2}},
		{name: "promotion", category: models.CategoryPromotion, page: 1, perPage: 10, expected: []int{4, 2}},
		{name: "nothing is hot yet", category: models.CategoryHot, page: 1, perPage: 10, expected: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := service.ListPosts(tt.category, tt.page, tt.perPage, bob)
			require.NoError(t, err)

			ids := make([]int, 0, len(posts))
			for _, p := range posts {
				ids = append(ids, p.ID)
				assert.Nil(t, p.Comments)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}

	posts, err := service.ListPosts("", 1, 1, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, posts[0].CommentCount)
}

func TestPostServiceToggleLike(t *testing.T) {
	service, _ := newPostServices(t)
	post, err := service.CreatePost(models.PostInput{Title: "Like me", Content: "Body"}, alice)
	require.NoError(t, err)

	liked, err := service.TogglePostLike(post.ID, bob)
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikeCount)

	asCarol, err := service.GetPost(post.ID, carol)
	require.NoError(t, err)
	assert.False(t, asCarol.Liked)
	assert.Equal(t, 1, asCarol.LikeCount)

	unliked, err := service.TogglePostLike(post.ID, bob)
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.Zero(t, unliked.LikeCount)

	own, err := service.TogglePostLike(post.ID, alice)
	require.NoError(t, err)
	assert.True(t, own.Liked)
	_, err = service.TogglePostLike(post.ID, alice)
	require.NoError(t, err)

	_, err = service.TogglePostLike(post.ID, models.Viewer{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.TogglePostLike(404, bob)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPostServiceHot(t *testing.T) {
	service, comments := newPostServices(t)

	liked, err := service.CreatePost(models.PostInput{Title: "Liked", Content: "Body", Category: models.CategoryPromotion}, alice)
	require.NoError(t, err)
	discussed, err := service.CreatePost(models.PostInput{Title: "Discussed", Content: "Body"}, alice)
	require.NoError(t, err)
	_, err = service.CreatePost(models.PostInput{Title: "Quiet", Content: "Body"}, alice)
	require.NoError(t, err)

	hotIDs := func() []int {
		posts, err := service.ListPosts(models.CategoryHot, 1, 10, bob)
		require.NoError(t, err)
		ids := make([]int, 0, len(posts))
		for _, p := range posts {
			assert.True(t, p.IsHot)
			ids = append(ids, p.ID)
		}
		return ids
	}

	for i := 0; i < models.HotLikes; i++ {
		post, err := service.TogglePostLike(liked.ID, models.Viewer{ID: fmt.Sprintf("fan%d", i)})
		require.NoError(t, err)
		assert.Equal(t, i+1 == models.HotLikes, post.IsHot)
	}
	assert.Equal(t, []int{liked.ID}, hotIDs())

	var last *models.Comment
	for i := 0; i < models.HotComments; i++ {
		last, _, err = comments.Submit(discussed.ID, bob, fmt.Sprintf("comment %d", i), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{discussed.ID, liked.ID}, hotIDs())

	t.Run("general board still lists by category", func(t *testing.T) {
		posts, err := service.ListPosts(models.CategoryGeneral, 1, 10, bob)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("deleting a comment cools the post down", func(t *testing.T) {
		_, err := comments.Delete(last.ID, bob)
		require.NoError(t, err)
		assert.Equal(t, []int{liked.ID}, hotIDs())
	})

	t.Run("unliking cools the post down", func(t *testing.T) {
		post, err := service.TogglePostLike(liked.ID, models.Viewer{ID: "fan0"})
		require.NoError(t, err)
		assert.False(t, post.IsHot)
		assert.Empty(t, hotIDs())
	})
}

func TestNewServicesShareLock(t *testing.T) {
	postRepo := memory.NewPostRepository()
	commentRepo := memory.NewCommentRepository()
	posts, comments := NewServices(postRepo, commentRepo)
	assert.Same(t, posts.mutex, comments.mutex)

	for round := 0; round < 20; round++ {
		post, err := posts.CreatePost(models.PostInput{Title: "Racy", Content: "Body"}, alice)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				comments.Submit(post.ID, bob, "late reply", nil)
			}()
		}
		require.NoError(t, posts.DeletePost(post.ID, alice))
		wg.Wait()

		left, err := commentRepo.ListByPost(post.ID)
		require.NoError(t, err)
		assert.Empty(t, left, "round %d", round)
	}
}

func TestPostServiceStorageFailures(t *testing.T) {
	boom := errors.New("disk on fire")

	t.Run("create", func(t *testing.T) {
		posts := new(mockPostRepo)
		posts.On("Create", mock.AnythingOfType("*models.Post")).Return(boom)

		_, err := NewPostService(posts, new(mockCommentRepo)).CreatePost(models.PostInput{Title: "t", Content: "c"}, alice)
		assert.ErrorIs(t, err, boom)
		posts.AssertExpectations(t)
	})

	t.Run("delete stops when comments cannot be removed", func(t *testing.T) {
		posts := new(mockPostRepo)
		comments := new(mockCommentRepo)
		posts.On("GetByID", 7).Return(&models.Post{ID: 7, AuthorID: "alice"}, nil)
		comments.On("DeleteByPost", 7).Return(boom)

		err := NewPostService(posts, comments).DeletePost(7, alice)
		assert.ErrorIs(t, err, boom)
		posts.AssertNotCalled(t, "Delete", mock.Anything)
	})

	t.Run("list", func(t *testing.T) {
		posts := new(mockPostRepo)
		comments := new(mockCommentRepo)
		posts.On("List", models.Category(""), 10, 0).Return([]*models.Post{{ID: 1, CreatedAt: time.Now()}}, nil)
		comments.On("ListByPost", 1).Return(nil, boom)

		_, err := NewPostService(posts, comments).ListPosts("", 1, 10, alice)
		assert.ErrorIs(t, err, boom)
	})
}
