package services

import (
	"communityboard/app/models"

	"github.com/stretchr/testify/mock"
)

type mockPostRepo struct {
	mock.Mock
}

func (m *mockPostRepo) Create(post *models.Post) error {
	return m.Called(post).Error(0)
}

func (m *mockPostRepo) GetByID(id int) (*models.Post, error) {
	args := m.Called(id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *mockPostRepo) List(category models.Category, limit, offset int) ([]*models.Post, error) {
	args := m.Called(category, limit, offset)
	posts, _ := args.Get(0).([]*models.Post)
	return posts, args.Error(1)
}

func (m *mockPostRepo) Update(post *models.Post) error {
	return m.Called(post).Error(0)
}

func (m *mockPostRepo) Delete(id int) error {
	return m.Called(id).Error(0)
}

type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) Create(comment *models.Comment) error {
	return m.Called(comment).Error(0)
}

func (m *mockCommentRepo) GetByID(id int) (*models.Comment, error) {
	args := m.Called(id)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockCommentRepo) ListByPost(postID int) ([]*models.Comment, error) {
	args := m.Called(postID)
	comments, _ := args.Get(0).([]*models.Comment)
	return comments, args.Error(1)
}

func (m *mockCommentRepo) Update(comment *models.Comment) error {
	return m.Called(comment).Error(0)
}

func (m *mockCommentRepo) Delete(id int) error {
	return m.Called(id).Error(0)
}

func (m *mockCommentRepo) DeleteByPost(postID int) error {
	return m.Called(postID).Error(0)
}
