package models

import (
	"errors"
	"time"
)

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}
	if c.ParentID != nil && *c.ParentID == c.ID && c.ID != 0 {
		return errors.New("comment cannot reply to itself")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate() {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
}

// SetPost sets the post the comment belongs to.
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.PostID = post.ID
	return nil
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// RepliesTo reports whether the comment's parent is the comment with the given id.
func (c *Comment) RepliesTo(id int) bool {
	return c.ParentID != nil && *c.ParentID == id
}

// WrittenBy reports whether the viewer with the given id authored the comment.
func (c *Comment) WrittenBy(viewerID string) bool {
	return viewerID != "" && c.AuthorID == viewerID
}

// Tombstone clears the visible content of the comment and keeps its id and
// parent so its replies stay anchored.
func (c *Comment) Tombstone() {
	c.Deleted = true
	c.Content = ""
	c.Author = ""
	c.LikedBy = nil
	c.LikeCount = 0
	c.Liked = false
}

// ToggleLike flips the viewer's like and reports whether the comment is now liked.
func (c *Comment) ToggleLike(viewerID string) bool {
	var liked bool
	c.LikedBy, liked = toggleMember(c.LikedBy, viewerID)
	c.LikeCount = len(c.LikedBy)
	return liked
}

// Clone returns a copy that shares no memory with c.
func (c *Comment) Clone() *Comment {
	cp := *c
	if c.ParentID != nil {
		parent := *c.ParentID
		cp.ParentID = &parent
	}
	cp.LikedBy = append([]string(nil), c.LikedBy...)
	return &cp
}

// ViewedBy returns a copy with Liked set for the given viewer. Tombstones do
// not reveal their author.
func (c *Comment) ViewedBy(viewerID string) *Comment {
	cp := c.Clone()
	cp.Liked = hasMember(c.LikedBy, viewerID)
	if cp.Deleted {
		cp.AuthorID = ""
	}
	return cp
}
