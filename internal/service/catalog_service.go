package service

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/repository"
	"github.com/artrate/artrate/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")
	ErrTitleNotFound    = errors.New("title not found")
	ErrSlugAlreadyTaken = errors.New("slug already exists")
	ErrInvalidSlug      = errors.New("slug may only contain letters, digits, hyphens and underscores")
	ErrNameRequired     = errors.New("name is required")
	ErrYearInFuture     = errors.New("year must not exceed the current year")

	slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// RatedTitle is a title with its derived average review score attached.
// Rating is nil when the title has no reviews yet.
type RatedTitle struct {
	models.Title
	Rating *int
}

// TitleInput is the write shape for titles: category and genres arrive as
// slug references.
type TitleInput struct {
	Name        string
	Year        int
	Description string
	Category    string
	Genres      []string
}

// TitlePatch is a partial title update; nil fields stay untouched.
type TitlePatch struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genres      *[]string
}

type CatalogService struct {
	catalogRepo *repository.CatalogRepository
}

func NewCatalogService(catalogRepo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// --- categories ---

func (s *CatalogService) CreateCategory(name, slug string) (*models.Category, error) {
	if err := validateClassification(name, slug); err != nil {
		return nil, err
	}

	existing, err := s.catalogRepo.GetCategoryBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugAlreadyTaken
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.catalogRepo.CreateCategory(category); err != nil {
		logger.Log.Error("Failed to create category", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Category created", zap.String("slug", slug))
	return category, nil
}

func (s *CatalogService) ListCategories(search string, limit, offset int) ([]models.Category, int64, error) {
	return s.catalogRepo.ListCategories(search, limit, offset)
}

func (s *CatalogService) DeleteCategory(slug string) error {
	category, err := s.catalogRepo.GetCategoryBySlug(slug)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	if err := s.catalogRepo.DeleteCategory(category); err != nil {
		logger.Log.Error("Failed to delete category", zap.String("slug", slug), zap.Error(err))
		return err
	}

	logger.Log.Info("Category deleted", zap.String("slug", slug))
	return nil
}

// --- genres ---

func (s *CatalogService) CreateGenre(name, slug string) (*models.Genre, error) {
	if err := validateClassification(name, slug); err != nil {
		return nil, err
	}

	existing, err := s.catalogRepo.GetGenreBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlugAlreadyTaken
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.catalogRepo.CreateGenre(genre); err != nil {
		logger.Log.Error("Failed to create genre", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Genre created", zap.String("slug", slug))
	return genre, nil
}

func (s *CatalogService) ListGenres(search string, limit, offset int) ([]models.Genre, int64, error) {
	return s.catalogRepo.ListGenres(search, limit, offset)
}

func (s *CatalogService) DeleteGenre(slug string) error {
	genre, err := s.catalogRepo.GetGenreBySlug(slug)
	if err != nil {
		return err
	}
	if genre == nil {
		return ErrGenreNotFound
	}

	if err := s.catalogRepo.DeleteGenre(genre); err != nil {
		logger.Log.Error("Failed to delete genre", zap.String("slug", slug), zap.Error(err))
		return err
	}

	logger.Log.Info("Genre deleted", zap.String("slug", slug))
	return nil
}

// --- titles ---

func (s *CatalogService) CreateTitle(in TitleInput) (*RatedTitle, error) {
	if in.Name == "" {
		return nil, ErrNameRequired
	}
	if err := validateYear(in.Year); err != nil {
		return nil, err
	}

	category, err := s.catalogRepo.GetCategoryBySlug(in.Category)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	genres, err := s.resolveGenres(in.Genres)
	if err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
		CategoryID:  &category.ID,
		Genres:      genres,
	}

	if err := s.catalogRepo.CreateTitle(title); err != nil {
		logger.Log.Error("Failed to create title", zap.String("name", in.Name), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
	)

	return s.GetTitle(title.ID)
}

// GetTitle returns a single title with its rating attached.
func (s *CatalogService) GetTitle(id uint) (*RatedTitle, error) {
	title, err := s.catalogRepo.GetTitleByID(id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, ErrTitleNotFound
	}

	ratings, err := s.catalogRepo.RatingsByTitleIDs([]uint{title.ID})
	if err != nil {
		return nil, err
	}

	return attachRating(*title, ratings), nil
}

// ListTitles is the read-only rating aggregation: a filtered page of
// titles, each carrying the truncated mean of its review scores, nil when
// it has no reviews. Titles without reviews are listed all the same.
func (s *CatalogService) ListTitles(filter repository.TitleFilter, limit, offset int) ([]RatedTitle, int64, error) {
	titles, total, err := s.catalogRepo.ListTitles(filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}

	ratings, err := s.catalogRepo.RatingsByTitleIDs(ids)
	if err != nil {
		return nil, 0, err
	}

	rated := make([]RatedTitle, len(titles))
	for i, t := range titles {
		rated[i] = *attachRating(t, ratings)
	}

	return rated, total, nil
}

func (s *CatalogService) UpdateTitle(id uint, patch TitlePatch) (*RatedTitle, error) {
	title, err := s.catalogRepo.GetTitleByID(id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, ErrTitleNotFound
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, ErrNameRequired
		}
		title.Name = *patch.Name
	}
	if patch.Year != nil {
		if err := validateYear(*patch.Year); err != nil {
			return nil, err
		}
		title.Year = *patch.Year
	}
	if patch.Description != nil {
		title.Description = *patch.Description
	}
	if patch.Category != nil {
		category, err := s.catalogRepo.GetCategoryBySlug(*patch.Category)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	if patch.Genres != nil {
		genres, err := s.resolveGenres(*patch.Genres)
		if err != nil {
			return nil, err
		}
		if err := s.catalogRepo.ReplaceTitleGenres(title, genres); err != nil {
			return nil, err
		}
		title.Genres = genres
	}

	if err := s.catalogRepo.UpdateTitle(title); err != nil {
		logger.Log.Error("Failed to update title", zap.Uint("title_id", id), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Title updated", zap.Uint("title_id", id))
	return s.GetTitle(id)
}

func (s *CatalogService) DeleteTitle(id uint) error {
	title, err := s.catalogRepo.GetTitleByID(id)
	if err != nil {
		return err
	}
	if title == nil {
		return ErrTitleNotFound
	}

	if err := s.catalogRepo.DeleteTitle(title); err != nil {
		logger.Log.Error("Failed to delete title", zap.Uint("title_id", id), zap.Error(err))
		return err
	}

	logger.Log.Info("Title deleted", zap.Uint("title_id", id))
	return nil
}

func (s *CatalogService) resolveGenres(slugs []string) ([]models.Genre, error) {
	genres := make([]models.Genre, 0, len(slugs))
	for _, slug := range slugs {
		genre, err := s.catalogRepo.GetGenreBySlug(slug)
		if err != nil {
			return nil, err
		}
		if genre == nil {
			return nil, fmt.Errorf("%w: %s", ErrGenreNotFound, slug)
		}
		genres = append(genres, *genre)
	}
	return genres, nil
}

// attachRating truncates the mean toward zero for display; titles without
// reviews keep a nil rating instead of being dropped.
func attachRating(title models.Title, ratings map[uint]float64) *RatedTitle {
	rated := &RatedTitle{Title: title}
	if avg, ok := ratings[title.ID]; ok {
		value := int(avg)
		rated.Rating = &value
	}
	return rated
}

func validateClassification(name, slug string) error {
	if name == "" || len(name) > 256 {
		return ErrNameRequired
	}
	if slug == "" || len(slug) > 50 || !slugRegex.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

func validateYear(year int) error {
	if year > time.Now().Year() {
		return ErrYearInFuture
	}
	return nil
}
