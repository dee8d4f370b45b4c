package models

import "time"

// Category groups titles by kind of work (film, book, music, ...).
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(256);not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

// Genre is an orthogonal classification tag; a title may carry many.
type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(256);not null" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

// Title is a reviewable creative work. Its rating is derived from reviews
// at query time and never stored.
type Title struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(256);not null;index" json:"name"`
	Year        int    `gorm:"not null;index" json:"year"`
	Description string `gorm:"type:varchar(256)" json:"description"`

	// Deleting a category keeps its titles, just unlinked.
	CategoryID *uint     `json:"-"`
	Category   *Category `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Genres     []Genre   `gorm:"many2many:title_genres;constraint:OnDelete:CASCADE" json:"genre"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
