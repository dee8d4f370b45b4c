package handler

import (
	"net/http"
	"strconv"

	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/service"
	"github.com/artrate/artrate/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// paginationParams parses ?page=&page_size= into limit/offset. Bad or
// missing values fall back to defaults rather than erroring.
func paginationParams(c *gin.Context) (limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return size, (page - 1) * size
}

// currentClaims pulls the verified identity set by the auth middleware.
func currentClaims(c *gin.Context) (*utils.Claims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok
}

// parseUintParam reads a numeric path parameter; responds 400 itself when
// the value is not a positive integer.
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid " + name,
		})
		return 0, false
	}
	return uint(value), true
}

func listEnvelope(total int64, results interface{}) gin.H {
	return gin.H{
		"count":   total,
		"results": results,
	}
}

// --- response shapes ---

func userResponse(u *models.User) gin.H {
	return gin.H{
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"bio":        u.Bio,
		"role":       u.Role,
	}
}

func categoryResponse(c *models.Category) gin.H {
	return gin.H{
		"name": c.Name,
		"slug": c.Slug,
	}
}

func genreResponse(g *models.Genre) gin.H {
	return gin.H{
		"name": g.Name,
		"slug": g.Slug,
	}
}

func titleResponse(t *service.RatedTitle) gin.H {
	genres := make([]gin.H, 0, len(t.Genres))
	for i := range t.Genres {
		genres = append(genres, genreResponse(&t.Genres[i]))
	}

	var category interface{}
	if t.Category != nil {
		category = categoryResponse(t.Category)
	}

	var rating interface{}
	if t.Rating != nil {
		rating = *t.Rating
	}

	return gin.H{
		"id":          t.ID,
		"name":        t.Name,
		"year":        t.Year,
		"description": t.Description,
		"rating":      rating,
		"genre":       genres,
		"category":    category,
	}
}

func reviewResponse(r *models.Review) gin.H {
	return gin.H{
		"id":       r.ID,
		"text":     r.Text,
		"author":   r.Author.Username,
		"score":    r.Score,
		"pub_date": r.CreatedAt,
		"title":    r.TitleID,
	}
}

func commentResponse(cm *models.Comment) gin.H {
	return gin.H{
		"id":       cm.ID,
		"text":     cm.Text,
		"author":   cm.Author.Username,
		"pub_date": cm.CreatedAt,
	}
}
