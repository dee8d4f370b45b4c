package handler

import (
	"errors"
	"net/http"

	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/policy"
	"github.com/artrate/artrate/internal/service"
	"github.com/artrate/artrate/internal/utils"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required"`
}

type PatchReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type PatchCommentRequest struct {
	Text *string `json:"text"`
}

func (h *ReviewHandler) requireIdentity(c *gin.Context) (*utils.Claims, bool) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return nil, false
	}
	return claims, true
}

// fetchReview resolves a review for mutation, translating not-found
// errors into the right status. Returns nil when a response was already
// written.
func (h *ReviewHandler) fetchReview(c *gin.Context) *models.Review {
	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := parseUintParam(c, "review_id")
	if !ok {
		return nil
	}

	review, err := h.reviewService.GetReview(titleID, reviewID)
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) || errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return nil
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review"})
		return nil
	}

	return review
}

func (h *ReviewHandler) fetchComment(c *gin.Context) *models.Comment {
	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return nil
	}
	reviewID, ok := parseUintParam(c, "review_id")
	if !ok {
		return nil
	}
	commentID, ok := parseUintParam(c, "comment_id")
	if !ok {
		return nil
	}

	comment, err := h.reviewService.GetComment(titleID, reviewID, commentID)
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) ||
			errors.Is(err, service.ErrReviewNotFound) ||
			errors.Is(err, service.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return nil
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comment"})
		return nil
	}

	return comment
}

// --- reviews ---

// ListReviews handles GET /titles/:title_id/reviews (open)
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return
	}

	limit, offset := paginationParams(c)
	reviews, total, err := h.reviewService.ListReviews(titleID, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	results := make([]gin.H, 0, len(reviews))
	for i := range reviews {
		results = append(results, reviewResponse(&reviews[i]))
	}

	c.JSON(http.StatusOK, listEnvelope(total, results))
}

// GetReview handles GET /titles/:title_id/reviews/:review_id (open)
func (h *ReviewHandler) GetReview(c *gin.Context) {
	review := h.fetchReview(c)
	if review == nil {
		return
	}
	c.JSON(http.StatusOK, reviewResponse(review))
}

// CreateReview handles POST /titles/:title_id/reviews. One review per
// author per title; the second attempt gets a 400.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	claims, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := h.reviewService.CreateReview(titleID, claims.UserID, req.Text, req.Score)
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, reviewResponse(review))
}

// PatchReview handles PATCH /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) PatchReview(c *gin.Context) {
	claims, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	review := h.fetchReview(c)
	if review == nil {
		return
	}

	if !policy.CanModerateContent(claims.Role, claims.UserID, review.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to edit this review"})
		return
	}

	var req PatchReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.reviewService.UpdateReview(review, req.Text, req.Score); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reviewResponse(review))
}

// DeleteReview handles DELETE /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	claims, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	review := h.fetchReview(c)
	if review == nil {
		return
	}

	if !policy.CanModerateContent(claims.Role, claims.UserID, review.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to delete this review"})
		return
	}

	if err := h.reviewService.DeleteReview(review); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
		return
	}

	c.Status(http.StatusNoContent)
}

// --- comments ---

// ListComments handles GET /titles/:title_id/reviews/:review_id/comments (open)
func (h *ReviewHandler) ListComments(c *gin.Context) {
	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseUintParam(c, "review_id")
	if !ok {
		return
	}

	limit, offset := paginationParams(c)
	comments, total, err := h.reviewService.ListComments(titleID, reviewID, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) || errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	results := make([]gin.H, 0, len(comments))
	for i := range comments {
		results = append(results, commentResponse(&comments[i]))
	}

	c.JSON(http.StatusOK, listEnvelope(total, results))
}

// GetComment handles GET /titles/:title_id/reviews/:review_id/comments/:comment_id (open)
func (h *ReviewHandler) GetComment(c *gin.Context) {
	comment := h.fetchComment(c)
	if comment == nil {
		return
	}
	c.JSON(http.StatusOK, commentResponse(comment))
}

// CreateComment handles POST /titles/:title_id/reviews/:review_id/comments
func (h *ReviewHandler) CreateComment(c *gin.Context) {
	claims, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseUintParam(c, "review_id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	comment, err := h.reviewService.CreateComment(titleID, reviewID, claims.UserID, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) || errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, commentResponse(comment))
}

// PatchComment handles PATCH /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *ReviewHandler) PatchComment(c *gin.Context) {
	claims, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	comment := h.fetchComment(c)
	if comment == nil {
		return
	}

	if !policy.CanModerateContent(claims.Role, claims.UserID, comment.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to edit this comment"})
		return
	}

	var req PatchCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.reviewService.UpdateComment(comment, req.Text); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, commentResponse(comment))
}

// DeleteComment handles DELETE /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *ReviewHandler) DeleteComment(c *gin.Context) {
	claims, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	comment := h.fetchComment(c)
	if comment == nil {
		return
	}

	if !policy.CanModerateContent(claims.Role, claims.UserID, comment.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to delete this comment"})
		return
	}

	if err := h.reviewService.DeleteComment(comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.Status(http.StatusNoContent)
}
