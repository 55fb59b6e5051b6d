package models

import "time"

// User represents an account within the Clipstream platform.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName returns the username, falling back to the email address.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Default rendering dimensions applied to newly published videos.
const (
	DefaultVideoWidth  = 400
	DefaultVideoHeight = 600
	DefaultVideoCrop   = "maintain_ratio"
)

// Transformation describes how a client should render the stored media.
type Transformation struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Crop   string `json:"crop"`
}

// DefaultTransformation returns the rendering applied when none is supplied.
func DefaultTransformation() Transformation {
	return Transformation{Width: DefaultVideoWidth, Height: DefaultVideoHeight, Crop: DefaultVideoCrop}
}

// Comment is a single entry in a video's comment thread.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Username  string    `json:"username"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Video is a published short-form video record.
type Video struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	VideoURL       string         `json:"videoUrl"`
	ThumbnailURL   string         `json:"thumbnailUrl"`
	UserID         string         `json:"userId"`
	Username       string         `json:"username"`
	Likes          int64          `json:"likes"`
	LikedBy        []string       `json:"likedBy"`
	Views          int64          `json:"views"`
	Comments       []Comment      `json:"comments"`
	Controls       bool           `json:"controls"`
	Transformation Transformation `json:"transformation"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// VideoUpdate lists the owner-editable fields of a video. Nil fields are left unchanged.
type VideoUpdate struct {
	Title          *string
	Description    *string
	VideoURL       *string
	ThumbnailURL   *string
	Controls       *bool
	Transformation *Transformation
	UpdatedAt      time.Time
}

// Profile holds the user-editable presentation details for an account.
type Profile struct {
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	Image     string    `json:"image,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pagination describes where a feed page sits within the full result set.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalVideos int64 `json:"totalVideos"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
	Limit       int   `json:"limit"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
