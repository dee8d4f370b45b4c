package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artrate/artrate/internal/handler"
	"github.com/artrate/artrate/internal/middleware"
	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/repository"
	"github.com/artrate/artrate/internal/service"
	"github.com/artrate/artrate/internal/testutil"
	"github.com/artrate/artrate/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	testJWTSecret = "handler-test-secret"
	testTokenTTL  = 1 * time.Hour
)

// captureSender records outbound mail instead of delivering it, so tests
// can read the confirmation code the way a user would.
type captureSender struct {
	mu        sync.Mutex
	fail      bool
	sent      int
	recipient string
	subject   string
	body      string
}

func (s *captureSender) Send(recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unreachable")
	}
	s.sent++
	s.recipient = recipient
	s.subject = subject
	s.body = body
	return nil
}

// lastCode extracts the confirmation code from the last captured mail.
func (s *captureSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimPrefix(s.body, "Confirmation code: ")
}

// reset clears captured mail state between tests.
func (s *captureSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = 0
	s.recipient = ""
	s.subject = ""
	s.body = ""
}

func (s *captureSender) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// testEnv wires the full API against an in-memory database, mirroring the
// production route table.
type testEnv struct {
	testDB *testutil.TestDatabase
	sender *captureSender
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	testDB := testutil.SetupTestDatabase(t)
	sender := &captureSender{}

	userRepo := repository.NewUserRepository(testDB.DB)
	catalogRepo := repository.NewCatalogRepository(testDB.DB)
	reviewRepo := repository.NewReviewRepository(testDB.DB)

	authService := service.NewAuthService(userRepo, sender, testJWTSecret, testTokenTTL, 168*time.Hour)
	userService := service.NewUserService(userRepo)
	catalogService := service.NewCatalogService(catalogRepo)
	reviewService := service.NewReviewService(reviewRepo, catalogRepo)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	reviewHandler := handler.NewReviewHandler(reviewService)

	router := gin.New()

	api := router.Group("/api/v1")
	{
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/token", authHandler.IssueToken)
	}

	open := api.Group("")
	open.Use(middleware.OptionalAuth(testJWTSecret))
	{
		open.GET("/categories", catalogHandler.ListCategories)
		open.GET("/genres", catalogHandler.ListGenres)
		open.GET("/titles", catalogHandler.ListTitles)
		open.GET("/titles/:title_id", catalogHandler.GetTitle)
		open.GET("/titles/:title_id/reviews", reviewHandler.ListReviews)
		open.GET("/titles/:title_id/reviews/:review_id", reviewHandler.GetReview)
		open.GET("/titles/:title_id/reviews/:review_id/comments", reviewHandler.ListComments)
		open.GET("/titles/:title_id/reviews/:review_id/comments/:comment_id", reviewHandler.GetComment)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(testJWTSecret))
	{
		protected.GET("/users", userHandler.ListUsers)
		protected.POST("/users", userHandler.CreateUser)
		protected.GET("/users/me", userHandler.Me)
		protected.PATCH("/users/me", userHandler.PatchMe)
		protected.GET("/users/:username", userHandler.GetUser)
		protected.PATCH("/users/:username", userHandler.PatchUser)
		protected.DELETE("/users/:username", userHandler.DeleteUser)

		protected.POST("/categories", catalogHandler.CreateCategory)
		protected.DELETE("/categories/:slug", catalogHandler.DeleteCategory)
		protected.POST("/genres", catalogHandler.CreateGenre)
		protected.DELETE("/genres/:slug", catalogHandler.DeleteGenre)
		protected.POST("/titles", catalogHandler.CreateTitle)
		protected.PATCH("/titles/:title_id", catalogHandler.PatchTitle)
		protected.DELETE("/titles/:title_id", catalogHandler.DeleteTitle)

		protected.POST("/titles/:title_id/reviews", reviewHandler.CreateReview)
		protected.PATCH("/titles/:title_id/reviews/:review_id", reviewHandler.PatchReview)
		protected.DELETE("/titles/:title_id/reviews/:review_id", reviewHandler.DeleteReview)
		protected.POST("/titles/:title_id/reviews/:review_id/comments", reviewHandler.CreateComment)
		protected.PATCH("/titles/:title_id/reviews/:review_id/comments/:comment_id", reviewHandler.PatchComment)
		protected.DELETE("/titles/:title_id/reviews/:review_id/comments/:comment_id", reviewHandler.DeleteComment)
	}

	return &testEnv{
		testDB: testDB,
		sender: sender,
		router: router,
	}
}

// accessToken mints a valid access token for a fixture user.
func (e *testEnv) accessToken(t *testing.T, user *models.User) string {
	access, _, err := utils.GenerateTokenPair(user, testJWTSecret, testTokenTTL, testTokenTTL)
	if err != nil {
		t.Fatalf("Failed to generate test token: %v", err)
	}
	return access
}

// do performs a request against the test router. A nil body sends no
// payload; an empty token leaves the request anonymous.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// itoa renders a numeric ID for use in a request path.
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// decode unmarshals a JSON response body into a generic map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return response
}
