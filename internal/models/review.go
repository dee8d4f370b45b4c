package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a user's scored write-up of a title. The composite unique
// index makes a second review for the same (title, author) pair fail at
// the store, so concurrent duplicate creations cannot both succeed.
type Review struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TitleID  uint      `gorm:"not null;uniqueIndex:idx_reviews_title_author" json:"title"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_title_author" json:"-"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Score    int       `gorm:"not null;check:score >= 1 AND score <= 10" json:"score"`

	CreatedAt time.Time `gorm:"index" json:"pub_date"`
	UpdatedAt time.Time `json:"-"`

	Title  Title `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Author User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	ReviewID uint      `gorm:"not null;index" json:"-"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Text     string    `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time `gorm:"index" json:"pub_date"`
	UpdatedAt time.Time `json:"-"`

	Review Review `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Author User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}
