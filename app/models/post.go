package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Valid reports whether c names a board a post can be filed under.
func (c Category) Valid() bool {
	return c == CategoryGeneral || c == CategoryPromotion
}

// Normalize maps the hot listing and an empty value onto the general board.
func (c Category) Normalize() Category {
	switch c {
	case "", CategoryHot:
		return CategoryGeneral
	}
	return c
}

// Lists reports whether a listing of c includes p. The empty category lists
// every post.
func (c Category) Lists(p *Post) bool {
	switch c {
	case "":
		return true
	case CategoryHot:
		return p.IsHot
	}
	return p.Category == c
}

// DisplayName returns the board label shown above the post form.
func (c Category) DisplayName() string {
	if c == CategoryPromotion {
		return "Promotion board"
	}
	return "General board"
}

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.Category = p.Category.Normalize()
}

// Apply copies the form fields onto the post. Category is only taken from the
// input when the post has none yet; an edit keeps the board it was filed under.
func (p *Post) Apply(in PostInput) {
	p.Title = in.Title
	p.Content = in.Content
	if p.Category == "" {
		p.Category = in.Category.Normalize()
	}

	kept := make(map[string]string, len(p.Images))
	for _, img := range p.Images {
		kept[img.URL] = img.ID
	}
	images := make([]Image, 0, len(in.Images))
	for _, url := range in.Images {
		id, ok := kept[url]
		if !ok {
			id = uuid.NewString()
		}
		images = append(images, Image{ID: id, URL: url})
	}
	p.Images = images
}

// MarkEdited stamps the post as edited at t.
func (p *Post) MarkEdited(t time.Time) {
	p.EditedAt = &t
}

// WrittenBy reports whether the viewer with the given id authored the post.
func (p *Post) WrittenBy(viewerID string) bool {
	return viewerID != "" && p.AuthorID == viewerID
}

// ToggleLike flips the viewer's like and reports whether the post is now liked.
func (p *Post) ToggleLike(viewerID string) bool {
	var liked bool
	p.LikedBy, liked = toggleMember(p.LikedBy, viewerID)
	p.LikeCount = len(p.LikedBy)
	return liked
}

// UpdateHot recomputes IsHot from the like count and the number of visible
// comments. It reports whether the flag changed.
func (p *Post) UpdateHot(commentCount int) bool {
	hot := p.LikeCount >= HotLikes || commentCount >= HotComments
	changed := hot != p.IsHot
	p.IsHot = hot
	return changed
}

// AttachComments sets the organized comment thread and the visible comment count.
func (p *Post) AttachComments(comments []*Comment) {
	p.Comments = comments
	p.CommentCount = 0
	for _, c := range comments {
		if !c.Deleted {
			p.CommentCount++
		}
	}
}

// Clone returns a copy that shares no slices with p. Attached comments are not copied.
func (p *Post) Clone() *Post {
	cp := *p
	cp.Images = append([]Image(nil), p.Images...)
	cp.LikedBy = append([]string(nil), p.LikedBy...)
	if p.EditedAt != nil {
		t := *p.EditedAt
		cp.EditedAt = &t
	}
	cp.Comments = nil
	return &cp
}

// ViewedBy returns a copy with Liked set for the given viewer.
func (p *Post) ViewedBy(viewerID string) *Post {
	cp := p.Clone()
	cp.Liked = hasMember(p.LikedBy, viewerID)
	return cp
}

// Normalize trims the text fields, maps the category onto a board, drops
// blank image urls and keeps only the first MaxImages images.
func (in *PostInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = in.Category.Normalize()

	images := make([]string, 0, len(in.Images))
	for _, url := range in.Images {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		if len(images) == MaxImages {
			break
		}
		images = append(images, url)
	}
	in.Images = images
}

// Valid reports whether the form can be submitted: title and content must not be blank.
func (in PostInput) Valid() bool {
	return strings.TrimSpace(in.Title) != "" && strings.TrimSpace(in.Content) != ""
}

// RemainingImageSlots is how many more images the form accepts.
func (in PostInput) RemainingImageSlots() int {
	if n := MaxImages - len(in.Images); n > 0 {
		return n
	}
	return 0
}

// Changed reports whether the form holds unsaved changes. With a nil original
// (create mode) any filled field counts; in edit mode the fields are compared
// against the stored post.
func (in PostInput) Changed(original *Post) bool {
	if original == nil {
		return strings.TrimSpace(in.Title) != "" || strings.TrimSpace(in.Content) != "" || len(in.Images) > 0
	}
	if in.Title != original.Title || in.Content != original.Content {
		return true
	}
	if len(in.Images) != len(original.Images) {
		return true
	}
	for i, url := range in.Images {
		if original.Images[i].URL != url {
			return true
		}
	}
	return false
}

// InputFrom returns the form fields of an existing post, for prefilling the edit form.
func InputFrom(p *Post) PostInput {
	in := PostInput{
		Title:    p.Title,
		Content:  p.Content,
		Category: p.Category,
		Images:   make([]string, 0, len(p.Images)),
	}
	for _, img := range p.Images {
		in.Images = append(in.Images, img.URL)
	}
	return in
}
