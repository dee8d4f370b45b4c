package service

import (
	"errors"

	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/repository"
	"github.com/artrate/artrate/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrDuplicateReview = errors.New("duplicate review")
	ErrScoreOutOfRange = errors.New("score must be between 1 and 10")
	ErrTextRequired    = errors.New("text is required")
)

type ReviewService struct {
	reviewRepo  *repository.ReviewRepository
	catalogRepo *repository.CatalogRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, catalogRepo *repository.CatalogRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		catalogRepo: catalogRepo,
	}
}

// CreateReview stamps author and title server-side and inserts. The
// one-review-per-(title, author) rule is enforced by the store's unique
// index, so two concurrent duplicates cannot both land; the loser's
// duplicate-key error is mapped to ErrDuplicateReview.
func (s *ReviewService) CreateReview(titleID uint, authorID uuid.UUID, text string, score int) (*models.Review, error) {
	if err := s.requireTitle(titleID); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrTextRequired
	}
	if score < 1 || score > 10 {
		return nil, ErrScoreOutOfRange
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     text,
		Score:    score,
	}

	if err := s.reviewRepo.CreateReview(review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Log.Warn("Duplicate review rejected",
				zap.Uint("title_id", titleID),
				zap.String("author_id", authorID.String()),
			)
			return nil, ErrDuplicateReview
		}
		logger.Log.Error("Failed to create review",
			zap.Uint("title_id", titleID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.String("author_id", authorID.String()),
	)

	// Reload with the author association for serialization.
	return s.reviewRepo.GetReview(titleID, review.ID)
}

// GetReview resolves a review strictly through its parent title.
func (s *ReviewService) GetReview(titleID, reviewID uint) (*models.Review, error) {
	if err := s.requireTitle(titleID); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetReview(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

func (s *ReviewService) ListReviews(titleID uint, limit, offset int) ([]models.Review, int64, error) {
	if err := s.requireTitle(titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListReviews(titleID, limit, offset)
}

// UpdateReview edits text and score. Title and author are immutable once
// set; authorization has already happened at the handler via policy.
func (s *ReviewService) UpdateReview(review *models.Review, text *string, score *int) error {
	if text != nil {
		if *text == "" {
			return ErrTextRequired
		}
		review.Text = *text
	}
	if score != nil {
		if *score < 1 || *score > 10 {
			return ErrScoreOutOfRange
		}
		review.Score = *score
	}

	if err := s.reviewRepo.UpdateReview(review); err != nil {
		logger.Log.Error("Failed to update review",
			zap.Uint("review_id", review.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Review updated", zap.Uint("review_id", review.ID))
	return nil
}

func (s *ReviewService) DeleteReview(review *models.Review) error {
	if err := s.reviewRepo.DeleteReview(review); err != nil {
		logger.Log.Error("Failed to delete review",
			zap.Uint("review_id", review.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Review deleted",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", review.TitleID),
	)
	return nil
}

// --- comments ---

func (s *ReviewService) CreateComment(titleID, reviewID uint, authorID uuid.UUID, text string) (*models.Comment, error) {
	review, err := s.GetReview(titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrTextRequired
	}

	comment := &models.Comment{
		ReviewID: review.ID,
		AuthorID: authorID,
		Text:     text,
	}

	if err := s.reviewRepo.CreateComment(comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.Uint("review_id", review.ID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", review.ID),
	)

	return s.reviewRepo.GetComment(review.ID, comment.ID)
}

// GetComment resolves the full parent chain: the title must own the
// review and the review must own the comment.
func (s *ReviewService) GetComment(titleID, reviewID, commentID uint) (*models.Comment, error) {
	review, err := s.GetReview(titleID, reviewID)
	if err != nil {
		return nil, err
	}

	comment, err := s.reviewRepo.GetComment(review.ID, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *ReviewService) ListComments(titleID, reviewID uint, limit, offset int) ([]models.Comment, int64, error) {
	review, err := s.GetReview(titleID, reviewID)
	if err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListComments(review.ID, limit, offset)
}

func (s *ReviewService) UpdateComment(comment *models.Comment, text *string) error {
	if text != nil {
		if *text == "" {
			return ErrTextRequired
		}
		comment.Text = *text
	}

	if err := s.reviewRepo.UpdateComment(comment); err != nil {
		logger.Log.Error("Failed to update comment",
			zap.Uint("comment_id", comment.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Comment updated", zap.Uint("comment_id", comment.ID))
	return nil
}

func (s *ReviewService) DeleteComment(comment *models.Comment) error {
	if err := s.reviewRepo.DeleteComment(comment); err != nil {
		logger.Log.Error("Failed to delete comment",
			zap.Uint("comment_id", comment.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Comment deleted", zap.Uint("comment_id", comment.ID))
	return nil
}

func (s *ReviewService) requireTitle(titleID uint) error {
	title, err := s.catalogRepo.GetTitleByID(titleID)
	if err != nil {
		return err
	}
	if title == nil {
		return ErrTitleNotFound
	}
	return nil
}
