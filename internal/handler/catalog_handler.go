package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/artrate/artrate/internal/policy"
	"github.com/artrate/artrate/internal/repository"
	"github.com/artrate/artrate/internal/service"
	"github.com/gin-gonic/gin"
)

// maxNameFilter caps the free-text name filter; the filters are bounded
// on purpose, never raw patterns.
const maxNameFilter = 100

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

type ClassificationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" binding:"required"`
	Category    string   `json:"category" binding:"required"`
}

type PatchTitleRequest struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre"`
	Category    *string   `json:"category"`
}

// requireCatalogAdmin gates every catalog mutation; reads never pass
// through here.
func (h *CatalogHandler) requireCatalogAdmin(c *gin.Context) bool {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return false
	}

	if !policy.CanWriteCatalog(claims.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		c.Abort()
		return false
	}

	return true
}

// --- categories ---

// ListCategories handles GET /categories (open)
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	limit, offset := paginationParams(c)
	categories, total, err := h.catalogService.ListCategories(c.Query("search"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	results := make([]gin.H, 0, len(categories))
	for i := range categories {
		results = append(results, categoryResponse(&categories[i]))
	}

	c.JSON(http.StatusOK, listEnvelope(total, results))
}

// CreateCategory handles POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	if !h.requireCatalogAdmin(c) {
		return
	}

	var req ClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	category, err := h.catalogService.CreateCategory(req.Name, req.Slug)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, categoryResponse(category))
}

// DeleteCategory handles DELETE /categories/:slug
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if !h.requireCatalogAdmin(c) {
		return
	}

	if err := h.catalogService.DeleteCategory(c.Param("slug")); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.Status(http.StatusNoContent)
}

// --- genres ---

// ListGenres handles GET /genres (open)
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	limit, offset := paginationParams(c)
	genres, total, err := h.catalogService.ListGenres(c.Query("search"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch genres"})
		return
	}

	results := make([]gin.H, 0, len(genres))
	for i := range genres {
		results = append(results, genreResponse(&genres[i]))
	}

	c.JSON(http.StatusOK, listEnvelope(total, results))
}

// CreateGenre handles POST /genres
func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	if !h.requireCatalogAdmin(c) {
		return
	}

	var req ClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	genre, err := h.catalogService.CreateGenre(req.Name, req.Slug)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, genreResponse(genre))
}

// DeleteGenre handles DELETE /genres/:slug
func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	if !h.requireCatalogAdmin(c) {
		return
	}

	if err := h.catalogService.DeleteGenre(c.Param("slug")); err != nil {
		if errors.Is(err, service.ErrGenreNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete genre"})
		return
	}

	c.Status(http.StatusNoContent)
}

// --- titles ---

// ListTitles handles GET /titles (open). Every title in the page carries
// its aggregated rating.
func (h *CatalogHandler) ListTitles(c *gin.Context) {
	filter := repository.TitleFilter{
		Genre:    c.Query("genre"),
		Category: c.Query("category"),
		Name:     c.Query("name"),
	}

	if len(filter.Name) > maxNameFilter {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name filter too long"})
		return
	}

	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
			return
		}
		filter.Year = &year
	}

	limit, offset := paginationParams(c)
	titles, total, err := h.catalogService.ListTitles(filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch titles"})
		return
	}

	results := make([]gin.H, 0, len(titles))
	for i := range titles {
		results = append(results, titleResponse(&titles[i]))
	}

	c.JSON(http.StatusOK, listEnvelope(total, results))
}

// GetTitle handles GET /titles/:title_id (open)
func (h *CatalogHandler) GetTitle(c *gin.Context) {
	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return
	}

	title, err := h.catalogService.GetTitle(titleID)
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch title"})
		return
	}

	c.JSON(http.StatusOK, titleResponse(title))
}

// CreateTitle handles POST /titles
func (h *CatalogHandler) CreateTitle(c *gin.Context) {
	if !h.requireCatalogAdmin(c) {
		return
	}

	var req CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	title, err := h.catalogService.CreateTitle(service.TitleInput{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	})
	if err != nil {
		// Unknown slug references in the payload are the caller's
		// mistake, not a missing route target.
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, titleResponse(title))
}

// PatchTitle handles PATCH /titles/:title_id
func (h *CatalogHandler) PatchTitle(c *gin.Context) {
	if !h.requireCatalogAdmin(c) {
		return
	}

	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return
	}

	var req PatchTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	title, err := h.catalogService.UpdateTitle(titleID, service.TitlePatch{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	})
	if err != nil {
		if errors.Is(err, service.ErrTitleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, titleResponse(title))
}

// DeleteTitle handles DELETE /titles/:title_id
func (h *CatalogHandler) DeleteTitle(c *gin.Context) {
	if !h.requireCatalogAdmin(c) {
		return
	}

	titleID, ok := parseUintParam(c, "title_id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteTitle(titleID); err != nil {
		if errors.Is(err, service.ErrTitleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete title"})
		return
	}

	c.Status(http.StatusNoContent)
}
