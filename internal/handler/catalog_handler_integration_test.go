package handler_test

import (
	"net/http"
	"testing"

	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/testutil"
	"github.com/artrate/artrate/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// CatalogHandlerIntegrationTestSuite defines test suite
type CatalogHandlerIntegrationTestSuite struct {
	suite.Suite
	env      *testEnv
	adminTok string
}

func (s *CatalogHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)
	s.env = newTestEnv(s.T())
}

func (s *CatalogHandlerIntegrationTestSuite) TearDownSuite() {
	s.env.testDB.Teardown(s.T())
}

func (s *CatalogHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.env.testDB.DB)
	s.env.sender.reset()
	s.adminTok = ""
}

// adminToken creates the admin fixture at most once per test; the memoized
// token is cleared in SetupTest along with the database.
func (s *CatalogHandlerIntegrationTestSuite) adminToken() string {
	if s.adminTok == "" {
		admin := testutil.DefaultAdminUser(s.T(), s.env.testDB.DB)
		s.adminTok = s.env.accessToken(s.T(), admin)
	}
	return s.adminTok
}

// TestCreateCategory tests category creation and the role gate around it
func (s *CatalogHandlerIntegrationTestSuite) TestCreateCategory() {
	body := map[string]string{"name": "Films", "slug": "films"}

	// Anonymous gets 401
	w := s.env.do(s.T(), http.MethodPost, "/api/v1/categories", body, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	// Regular user gets 403
	regular := testutil.DefaultTestUser(s.T(), s.env.testDB.DB)
	w = s.env.do(s.T(), http.MethodPost, "/api/v1/categories", body, s.env.accessToken(s.T(), regular))
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	// Admin succeeds
	w = s.env.do(s.T(), http.MethodPost, "/api/v1/categories", body, s.adminToken())
	assert.Equal(s.T(), http.StatusCreated, w.Code)
	response := decode(s.T(), w)
	assert.Equal(s.T(), "Films", response["name"])
	assert.Equal(s.T(), "films", response["slug"])
}

// TestCreateCategoryDuplicateSlug tests slug uniqueness
func (s *CatalogHandlerIntegrationTestSuite) TestCreateCategoryDuplicateSlug() {
	testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")

	w := s.env.do(s.T(), http.MethodPost, "/api/v1/categories", map[string]string{
		"name": "Movies",
		"slug": "films",
	}, s.adminToken())

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	response := decode(s.T(), w)
	assert.Contains(s.T(), response["error"], "slug already exists")
}

// TestCreateCategoryInvalidSlug tests slug charset validation
func (s *CatalogHandlerIntegrationTestSuite) TestCreateCategoryInvalidSlug() {
	w := s.env.do(s.T(), http.MethodPost, "/api/v1/categories", map[string]string{
		"name": "Films",
		"slug": "films and more!",
	}, s.adminToken())

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

// TestListCategoriesSearch tests the open listing with name search
func (s *CatalogHandlerIntegrationTestSuite) TestListCategoriesSearch() {
	testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Books", "books")
	testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Music", "music")

	// Unfiltered listing, no auth needed
	w := s.env.do(s.T(), http.MethodGet, "/api/v1/categories", nil, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	response := decode(s.T(), w)
	assert.Equal(s.T(), float64(3), response["count"])

	// Case-insensitive substring search
	w = s.env.do(s.T(), http.MethodGet, "/api/v1/categories?search=boo", nil, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	response = decode(s.T(), w)
	assert.Equal(s.T(), float64(1), response["count"])
	results := response["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(s.T(), "Books", first["name"])
}

// TestDeleteCategoryKeepsTitles tests SET NULL semantics on category delete
func (s *CatalogHandlerIntegrationTestSuite) TestDeleteCategoryKeepsTitles() {
	category := testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	title := testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Orphaned Work", 1999, category)

	w := s.env.do(s.T(), http.MethodDelete, "/api/v1/categories/films", nil, s.adminToken())
	assert.Equal(s.T(), http.StatusNoContent, w.Code)

	// The title survives, just unlinked
	w = s.env.do(s.T(), http.MethodGet, "/api/v1/titles/"+itoa(title.ID), nil, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	response := decode(s.T(), w)
	assert.Equal(s.T(), "Orphaned Work", response["name"])
	assert.Nil(s.T(), response["category"])

	// Unknown slug is a 404
	w = s.env.do(s.T(), http.MethodDelete, "/api/v1/categories/ghost", nil, s.adminToken())
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

// TestCreateGenreAndDelete tests genre lifecycle
func (s *CatalogHandlerIntegrationTestSuite) TestCreateGenreAndDelete() {
	w := s.env.do(s.T(), http.MethodPost, "/api/v1/genres", map[string]string{
		"name": "Drama",
		"slug": "drama",
	}, s.adminToken())
	assert.Equal(s.T(), http.StatusCreated, w.Code)

	w = s.env.do(s.T(), http.MethodDelete, "/api/v1/genres/drama", nil, s.adminToken())
	assert.Equal(s.T(), http.StatusNoContent, w.Code)

	w = s.env.do(s.T(), http.MethodDelete, "/api/v1/genres/drama", nil, s.adminToken())
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

// TestCreateTitle tests title creation through slug references
func (s *CatalogHandlerIntegrationTestSuite) TestCreateTitle() {
	testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	testutil.CreateTestGenre(s.T(), s.env.testDB.DB, "Drama", "drama")
	testutil.CreateTestGenre(s.T(), s.env.testDB.DB, "Comedy", "comedy")

	w := s.env.do(s.T(), http.MethodPost, "/api/v1/titles", map[string]interface{}{
		"name":        "The Long Year",
		"year":        2019,
		"description": "A story",
		"genre":       []string{"drama", "comedy"},
		"category":    "films",
	}, s.adminToken())

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	response := decode(s.T(), w)
	assert.Equal(s.T(), "The Long Year", response["name"])
	assert.Equal(s.T(), float64(2019), response["year"])
	assert.Nil(s.T(), response["rating"], "A fresh title has no rating")

	category := response["category"].(map[string]interface{})
	assert.Equal(s.T(), "films", category["slug"])
	assert.Len(s.T(), response["genre"], 2)
}

// TestCreateTitleValidation tests the write-side guards
func (s *CatalogHandlerIntegrationTestSuite) TestCreateTitleValidation() {
	testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	testutil.CreateTestGenre(s.T(), s.env.testDB.DB, "Drama", "drama")
	token := s.adminToken()

	// Year in the future
	w := s.env.do(s.T(), http.MethodPost, "/api/v1/titles", map[string]interface{}{
		"name":     "Unreleased",
		"year":     3000,
		"genre":    []string{"drama"},
		"category": "films",
	}, token)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	response := decode(s.T(), w)
	assert.Contains(s.T(), response["error"], "year")

	// Unknown genre slug
	w = s.env.do(s.T(), http.MethodPost, "/api/v1/titles", map[string]interface{}{
		"name":     "Misfiled",
		"year":     2000,
		"genre":    []string{"jazzpunk"},
		"category": "films",
	}, token)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	response = decode(s.T(), w)
	assert.Contains(s.T(), response["error"], "genre not found")

	// Unknown category slug
	w = s.env.do(s.T(), http.MethodPost, "/api/v1/titles", map[string]interface{}{
		"name":     "Misfiled",
		"year":     2000,
		"genre":    []string{"drama"},
		"category": "podcasts",
	}, token)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	response = decode(s.T(), w)
	assert.Contains(s.T(), response["error"], "category not found")
}

// TestTitleRatingAggregation tests the derived rating: truncated mean,
// nil when no reviews exist
func (s *CatalogHandlerIntegrationTestSuite) TestTitleRatingAggregation() {
	category := testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	rated := testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Rated Work", 2001, category)
	unrated := testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Unrated Work", 2002, category)

	alice := testutil.UniqueUser(s.T(), s.env.testDB.DB, "alice", models.RoleUser)
	bob := testutil.UniqueUser(s.T(), s.env.testDB.DB, "bob", models.RoleUser)
	testutil.CreateTestReview(s.T(), s.env.testDB.DB, rated, alice, "good", 8)
	testutil.CreateTestReview(s.T(), s.env.testDB.DB, rated, bob, "okay", 5)

	// (8+5)/2 = 6.5, truncated to 6
	w := s.env.do(s.T(), http.MethodGet, "/api/v1/titles/"+itoa(rated.ID), nil, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	response := decode(s.T(), w)
	assert.Equal(s.T(), float64(6), response["rating"])

	// No reviews means null rating, not zero
	w = s.env.do(s.T(), http.MethodGet, "/api/v1/titles/"+itoa(unrated.ID), nil, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	response = decode(s.T(), w)
	assert.Nil(s.T(), response["rating"])

	// The listing carries both, each with its own rating
	w = s.env.do(s.T(), http.MethodGet, "/api/v1/titles", nil, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	response = decode(s.T(), w)
	assert.Equal(s.T(), float64(2), response["count"])

	byName := map[string]interface{}{}
	for _, raw := range response["results"].([]interface{}) {
		entry := raw.(map[string]interface{})
		byName[entry["name"].(string)] = entry["rating"]
	}
	assert.Equal(s.T(), float64(6), byName["Rated Work"])
	assert.Nil(s.T(), byName["Unrated Work"])
}

// TestListTitlesFilters tests the exact-match and substring filters
func (s *CatalogHandlerIntegrationTestSuite) TestListTitlesFilters() {
	films := testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	books := testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Books", "books")
	drama := testutil.CreateTestGenre(s.T(), s.env.testDB.DB, "Drama", "drama")
	comedy := testutil.CreateTestGenre(s.T(), s.env.testDB.DB, "Comedy", "comedy")

	testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Winter Story", 1994, films, drama)
	testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Summer Laughs", 1994, films, comedy)
	testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Quiet Pages", 2003, books, drama)

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{"by_category", "?category=books", []string{"Quiet Pages"}},
		{"by_genre", "?genre=drama", []string{"Winter Story", "Quiet Pages"}},
		{"by_year", "?year=1994", []string{"Winter Story", "Summer Laughs"}},
		{"by_name_substring", "?name=winter", []string{"Winter Story"}},
		{"combined", "?genre=drama&year=1994", []string{"Winter Story"}},
		{"no_match", "?category=films&year=2003", nil},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			w := s.env.do(s.T(), http.MethodGet, "/api/v1/titles"+tc.query, nil, "")
			require.Equal(s.T(), http.StatusOK, w.Code)
			response := decode(s.T(), w)
			assert.Equal(s.T(), float64(len(tc.expected)), response["count"])

			var names []string
			for _, raw := range response["results"].([]interface{}) {
				names = append(names, raw.(map[string]interface{})["name"].(string))
			}
			assert.ElementsMatch(s.T(), tc.expected, names)
		})
	}

	// Garbage year is rejected, not ignored
	w := s.env.do(s.T(), http.MethodGet, "/api/v1/titles?year=nineteen", nil, "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

// TestPatchTitle tests partial updates including genre replacement
func (s *CatalogHandlerIntegrationTestSuite) TestPatchTitle() {
	films := testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	drama := testutil.CreateTestGenre(s.T(), s.env.testDB.DB, "Drama", "drama")
	testutil.CreateTestGenre(s.T(), s.env.testDB.DB, "Comedy", "comedy")
	title := testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Working Title", 2010, films, drama)

	w := s.env.do(s.T(), http.MethodPatch, "/api/v1/titles/"+itoa(title.ID), map[string]interface{}{
		"name":  "Final Title",
		"genre": []string{"comedy"},
	}, s.adminToken())

	assert.Equal(s.T(), http.StatusOK, w.Code)
	response := decode(s.T(), w)
	assert.Equal(s.T(), "Final Title", response["name"])
	assert.Equal(s.T(), float64(2010), response["year"], "Unpatched fields stay put")

	genres := response["genre"].([]interface{})
	require.Len(s.T(), genres, 1)
	assert.Equal(s.T(), "comedy", genres[0].(map[string]interface{})["slug"])
}

// TestDeleteTitleCascades tests that reviews and comments die with their
// title
func (s *CatalogHandlerIntegrationTestSuite) TestDeleteTitleCascades() {
	films := testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	title := testutil.CreateTestTitle(s.T(), s.env.testDB.DB, "Doomed Work", 2010, films)
	author := testutil.DefaultTestUser(s.T(), s.env.testDB.DB)
	review := testutil.CreateTestReview(s.T(), s.env.testDB.DB, title, author, "fine", 7)
	testutil.CreateTestComment(s.T(), s.env.testDB.DB, review, author, "agreed")

	w := s.env.do(s.T(), http.MethodDelete, "/api/v1/titles/"+itoa(title.ID), nil, s.adminToken())
	assert.Equal(s.T(), http.StatusNoContent, w.Code)

	var reviews, comments int64
	s.env.testDB.DB.Model(&models.Review{}).Count(&reviews)
	s.env.testDB.DB.Model(&models.Comment{}).Count(&comments)
	assert.Equal(s.T(), int64(0), reviews, "Reviews cascade with their title")
	assert.Equal(s.T(), int64(0), comments, "Comments cascade with their review")
}

// TestOpenReadsCredentialHandling tests that open reads serve anonymous
// and authenticated callers alike, but a garbage credential is rejected
// rather than silently treated as anonymous
func (s *CatalogHandlerIntegrationTestSuite) TestOpenReadsCredentialHandling() {
	testutil.CreateTestCategory(s.T(), s.env.testDB.DB, "Films", "films")
	regular := testutil.DefaultTestUser(s.T(), s.env.testDB.DB)

	// Anonymous is fine
	w := s.env.do(s.T(), http.MethodGet, "/api/v1/categories", nil, "")
	assert.Equal(s.T(), http.StatusOK, w.Code)

	// A valid token is fine too
	w = s.env.do(s.T(), http.MethodGet, "/api/v1/categories", nil, s.env.accessToken(s.T(), regular))
	assert.Equal(s.T(), http.StatusOK, w.Code)

	// A presented-but-invalid token is a 401, not a downgrade
	w = s.env.do(s.T(), http.MethodGet, "/api/v1/categories", nil, "not-a-real-token")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.env.do(s.T(), http.MethodGet, "/api/v1/titles", nil, "not-a-real-token")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

// TestSuite runs all tests in the suite
func TestCatalogHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogHandlerIntegrationTestSuite))
}
