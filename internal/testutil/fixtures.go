package testutil

import (
	"fmt"
	"testing"

	"github.com/artrate/artrate/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateTestUser inserts a user and returns it. The confirmation hash is
// left empty: fixture users are already past the signup flow.
func CreateTestUser(t *testing.T, db *gorm.DB, username, email string, role models.Role) *models.User {
	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	return user
}

// DefaultTestUser inserts a regular user
func DefaultTestUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "testuser", "test@example.com", models.RoleUser)
}

// DefaultAdminUser inserts an admin user
func DefaultAdminUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "rootadmin", "admin@example.com", models.RoleAdmin)
}

// DefaultModeratorUser inserts a moderator user
func DefaultModeratorUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "moderator", "mod@example.com", models.RoleModerator)
}

func CreateTestCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	category := &models.Category{Name: name, Slug: slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create test category %s: %v", slug, err)
	}
	return category
}

func CreateTestGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	genre := &models.Genre{Name: name, Slug: slug}
	if err := db.Create(genre).Error; err != nil {
		t.Fatalf("Failed to create test genre %s: %v", slug, err)
	}
	return genre
}

// CreateTestTitle inserts a title linked to the given category and genres.
func CreateTestTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category, genres ...*models.Genre) *models.Title {
	title := &models.Title{
		Name: name,
		Year: year,
	}
	if category != nil {
		title.CategoryID = &category.ID
	}
	for _, g := range genres {
		title.Genres = append(title.Genres, *g)
	}
	if err := db.Create(title).Error; err != nil {
		t.Fatalf("Failed to create test title %s: %v", name, err)
	}
	return title
}

func CreateTestReview(t *testing.T, db *gorm.DB, title *models.Title, author *models.User, text string, score int) *models.Review {
	review := &models.Review{
		TitleID:  title.ID,
		AuthorID: author.ID,
		Text:     text,
		Score:    score,
	}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("Failed to create test review: %v", err)
	}
	return review
}

func CreateTestComment(t *testing.T, db *gorm.DB, review *models.Review, author *models.User, text string) *models.Comment {
	comment := &models.Comment{
		ReviewID: review.ID,
		AuthorID: author.ID,
		Text:     text,
	}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}
	return comment
}

// UniqueUser inserts a user with a generated unique username/email pair,
// for tests that need many distinct authors.
func UniqueUser(t *testing.T, db *gorm.DB, prefix string, role models.Role) *models.User {
	suffix := uuid.New().String()[:8]
	return CreateTestUser(t, db,
		fmt.Sprintf("%s_%s", prefix, suffix),
		fmt.Sprintf("%s_%s@example.com", prefix, suffix),
		role,
	)
}
