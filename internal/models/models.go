package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

type SocialLinks struct {
	Website   string `gorm:"column:website;size:255"   json:"website,omitempty"`
	Facebook  string `gorm:"column:facebook;size:255"  json:"facebook,omitempty"`
	Instagram string `gorm:"column:instagram;size:255" json:"instagram,omitempty"`
	LinkedIn  string `gorm:"column:linkedin;size:255"  json:"linkedin,omitempty"`
	X         string `gorm:"column:x;size:255"         json:"x,omitempty"`
	YouTube   string `gorm:"column:youtube;size:255"   json:"youtube,omitempty"`
}

type User struct {
	ID           uuid.UUID   `gorm:"primaryKey"                         json:"id"`
	Username     string      `gorm:"size:20;uniqueIndex;not null"       json:"username"`
	Email        string      `gorm:"size:255;uniqueIndex;not null"      json:"email"`
	PasswordHash string      `gorm:"not null"                           json:"-"`
	Role         string      `gorm:"size:10;not null;default:user"      json:"role"`
	FirstName    string      `gorm:"size:20"                            json:"firstName,omitempty"`
	LastName     string      `gorm:"size:20"                            json:"lastName,omitempty"`
	SocialLinks  SocialLinks `gorm:"embedded;embeddedPrefix:social_"    json:"socialLinks"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// RefreshToken is a Session Store row. Presence means the token is live.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                 json:"id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    uuid.UUID `gorm:"index;not null"             json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null"             json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type Banner struct {
	PublicID string `gorm:"size:255" json:"publicId,omitempty"`
	URL      string `gorm:"size:512" json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type Blog struct {
	ID            uuid.UUID  `gorm:"primaryKey"                       json:"id"`
	Title         string     `gorm:"size:180;not null"                json:"title"`
	Slug          string     `gorm:"size:255;uniqueIndex;not null"    json:"slug"`
	Content       string     `gorm:"type:text;not null"               json:"content"`
	Banner        Banner     `gorm:"embedded;embeddedPrefix:banner_"  json:"banner"`
	AuthorID      uuid.UUID  `gorm:"index;not null"                   json:"-"`
	Author        *User      `gorm:"foreignKey:AuthorID"              json:"author,omitempty"`
	ViewsCount    int        `gorm:"not null;default:0"               json:"viewsCount"`
	LikesCount    int        `gorm:"not null;default:0"               json:"likesCount"`
	CommentsCount int        `gorm:"not null;default:0"               json:"commentsCount"`
	Status        string     `gorm:"size:10;index;not null;default:draft" json:"status"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `gorm:"index"                            json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (b *Blog) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BlogStatusDraft
	}
	return nil
}
