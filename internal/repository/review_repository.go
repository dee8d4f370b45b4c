package repository

import (
	"errors"

	"github.com/artrate/artrate/internal/models"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateReview inserts the review. A duplicate (title, author) pair comes
// back as gorm.ErrDuplicatedKey from the unique index; the caller maps it
// to a validation error. There is deliberately no existence pre-check.
func (r *ReviewRepository) CreateReview(review *models.Review) error {
	return r.db.Create(review).Error
}

// GetReview fetches a review strictly through its parent title; an ID that
// exists under a different title is not found here.
func (r *ReviewRepository) GetReview(titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &review, nil
}

func (r *ReviewRepository) ListReviews(titleID uint, limit, offset int) ([]models.Review, int64, error) {
	var total int64
	err := r.db.Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err = r.db.Preload("Author").
		Where("title_id = ?", titleID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *ReviewRepository) UpdateReview(review *models.Review) error {
	return r.db.Save(review).Error
}

func (r *ReviewRepository) DeleteReview(review *models.Review) error {
	// Child comments are removed by the FK cascade.
	return r.db.Delete(review).Error
}

// --- comments ---

func (r *ReviewRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *ReviewRepository) GetComment(reviewID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &comment, nil
}

func (r *ReviewRepository) ListComments(reviewID uint, limit, offset int) ([]models.Comment, int64, error) {
	var total int64
	err := r.db.Model(&models.Comment{}).Where("review_id = ?", reviewID).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err = r.db.Preload("Author").
		Where("review_id = ?", reviewID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *ReviewRepository) UpdateComment(comment *models.Comment) error {
	return r.db.Save(comment).Error
}

func (r *ReviewRepository) DeleteComment(comment *models.Comment) error {
	return r.db.Delete(comment).Error
}
