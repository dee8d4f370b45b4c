package repository

import (
	"errors"
	"strings"

	"github.com/artrate/artrate/internal/models"
	"gorm.io/gorm"
)

// TitleFilter narrows a title listing. Genre and Category match slugs
// exactly, Year matches exactly, Name is a case-insensitive substring.
// Zero values match everything.
type TitleFilter struct {
	Genre    string
	Category string
	Name     string
	Year     *int
}

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// --- categories ---

func (r *CatalogRepository) CreateCategory(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *CatalogRepository) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("slug = ?", slug).First(&category).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *CatalogRepository) ListCategories(search string, limit, offset int) ([]models.Category, int64, error) {
	q := r.db.Model(&models.Category{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []models.Category
	err := q.Order("slug").Limit(limit).Offset(offset).Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

func (r *CatalogRepository) DeleteCategory(category *models.Category) error {
	// Titles keep existing with category_id set to NULL at the store.
	return r.db.Delete(category).Error
}

// --- genres ---

func (r *CatalogRepository) CreateGenre(genre *models.Genre) error {
	return r.db.Create(genre).Error
}

func (r *CatalogRepository) GetGenreBySlug(slug string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.Where("slug = ?", slug).First(&genre).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &genre, nil
}

func (r *CatalogRepository) ListGenres(search string, limit, offset int) ([]models.Genre, int64, error) {
	q := r.db.Model(&models.Genre{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []models.Genre
	err := q.Order("slug").Limit(limit).Offset(offset).Find(&genres).Error
	if err != nil {
		return nil, 0, err
	}

	return genres, total, nil
}

func (r *CatalogRepository) DeleteGenre(genre *models.Genre) error {
	return r.db.Delete(genre).Error
}

// --- titles ---

func (r *CatalogRepository) CreateTitle(title *models.Title) error {
	return r.db.Create(title).Error
}

func (r *CatalogRepository) GetTitleByID(id uint) (*models.Title, error) {
	var title models.Title
	err := r.db.Preload("Genres").Preload("Category").First(&title, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &title, nil
}

// ListTitles returns a filtered page ordered by descending year, plus the
// total count for the filter.
func (r *CatalogRepository) ListTitles(filter TitleFilter, limit, offset int) ([]models.Title, int64, error) {
	q := r.db.Model(&models.Title{})

	if filter.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.Category)
	}
	if filter.Genre != "" {
		// title_genres is unique per (title, genre), so an exact slug
		// match cannot duplicate title rows.
		q = q.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", filter.Genre)
	}
	if filter.Name != "" {
		q = q.Where("LOWER(titles.name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(filter.Name))+"%")
	}
	if filter.Year != nil {
		q = q.Where("titles.year = ?", *filter.Year)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var titles []models.Title
	err := q.Preload("Genres").Preload("Category").
		Order("titles.year DESC").
		Limit(limit).Offset(offset).
		Find(&titles).Error
	if err != nil {
		return nil, 0, err
	}

	return titles, total, nil
}

func (r *CatalogRepository) UpdateTitle(title *models.Title) error {
	return r.db.Save(title).Error
}

// ReplaceTitleGenres rewrites the genre link set for a title.
func (r *CatalogRepository) ReplaceTitleGenres(title *models.Title, genres []models.Genre) error {
	return r.db.Model(title).Association("Genres").Replace(genres)
}

func (r *CatalogRepository) DeleteTitle(title *models.Title) error {
	// Reviews (and their comments) go with the title via FK cascade.
	return r.db.Delete(title).Error
}

// RatingsByTitleIDs computes the mean review score per title in one
// grouped aggregate. Titles with no reviews are simply absent from the
// result map.
func (r *CatalogRepository) RatingsByTitleIDs(ids []uint) (map[uint]float64, error) {
	ratings := make(map[uint]float64, len(ids))
	if len(ids) == 0 {
		return ratings, nil
	}

	type row struct {
		TitleID uint
		Rating  float64
	}

	var rows []row
	err := r.db.Model(&models.Review{}).
		Select("title_id, AVG(score) AS rating").
		Where("title_id IN ?", ids).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		ratings[row.TitleID] = row.Rating
	}

	return ratings, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
