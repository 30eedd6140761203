package models

import "time"

// Category is the board a post is filed under.
type Category string

const (
	CategoryGeneral   Category = "general"
	CategoryPromotion Category = "promotion"
	// CategoryHot lists hot posts from every board. Posts created from it land in general.
	CategoryHot Category = "hot"
)

// MaxImages is the number of images a single post may carry.
const MaxImages = 5

// A post turns hot once it reaches either threshold and cools off when it
// drops below both.
const (
	HotLikes    = 5
	HotComments = 10
)

// Viewer identifies whoever is looking at or acting on the board.
type Viewer struct {
	ID   string
	Name string
}

// Image is an attachment shown with a post.
type Image struct {
	ID  string `json:"id" validate:"required,uuid"`
	URL string `json:"url" validate:"required,max=2048"`
}

// Post represents a board post.
type Post struct {
	ID           int        `json:"id" validate:"gte=0"`
	Title        string     `json:"title" validate:"required,max=100"`
	Content      string     `json:"content" validate:"required,max=5000"`
	Category     Category   `json:"category" validate:"required,category"`
	Images       []Image    `json:"images" validate:"max=5,dive"`
	Author       string     `json:"author" validate:"max=100"`
	AuthorID     string     `json:"authorId" validate:"required,max=100"`
	LikedBy      []string   `json:"likedBy,omitempty"`
	LikeCount    int        `json:"likes" validate:"gte=0"`
	Liked        bool       `json:"liked"`
	CommentCount int        `json:"commentCount"`
	IsHot        bool       `json:"isHot"`
	CreatedAt    time.Time  `json:"createdAt" validate:"required"`
	EditedAt     *time.Time `json:"editedAt,omitempty"`
	Comments     []*Comment `json:"comments,omitempty" validate:"-"`
}

// Comment represents a comment on a post. A nil ParentID marks a root comment;
// otherwise ParentID references any other comment of the same post.
type Comment struct {
	ID        int       `json:"id" validate:"gte=0"`
	PostID    int       `json:"postId" validate:"required,gt=0"`
	ParentID  *int      `json:"parentId"`
	Author    string    `json:"author" validate:"required_unless=Deleted true,max=100"`
	AuthorID  string    `json:"authorId,omitempty" validate:"required,max=100"`
	Content   string    `json:"content" validate:"required_unless=Deleted true,max=1000"`
	LikedBy   []string  `json:"likedBy,omitempty"`
	LikeCount int       `json:"likes" validate:"gte=0"`
	Liked     bool      `json:"liked"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
}

// PostInput carries the editable fields of the post form.
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
	Images   []string `json:"images"`
}
