package testing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cinematch/internal/app"
	"github.com/temcen/cinematch/internal/config"
	"github.com/temcen/cinematch/internal/dataset"
	"github.com/temcen/cinematch/internal/validation"
)

// ContractTester provides utilities for API contract testing
type ContractTester struct {
	validator *validation.SchemaValidator
	router    http.Handler
}

// NewContractTester creates a new contract tester instance
func NewContractTester(validator *validation.SchemaValidator, router http.Handler) *ContractTester {
	return &ContractTester{
		validator: validator,
		router:    router,
	}
}

// TestCase represents a single API contract test case
type TestCase struct {
	Name           string
	Path           string
	Headers        map[string]string
	ExpectedStatus int
	ExpectedSchema string
}

// APIContractTest runs a contract test suite
func (ct *ContractTester) APIContractTest(t *testing.T, testCases []TestCase) {
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ct.runTestCase(t, tc)
		})
	}
}

// runTestCase executes a single test case
func (ct *ContractTester) runTestCase(t *testing.T, tc TestCase) {
	req := httptest.NewRequest(http.MethodGet, tc.Path, nil)
	for key, value := range tc.Headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	ct.router.ServeHTTP(w, req)

	assert.Equal(t, tc.ExpectedStatus, w.Code,
		"Expected status %d, got %d. Response: %s",
		tc.ExpectedStatus, w.Code, w.Body.String())

	ct.validateResponseHeaders(t, w)

	if tc.ExpectedSchema != "" {
		ct.validateResponseSchema(t, w.Body.String(), tc.ExpectedSchema)
	}

	if tc.ExpectedSchema == "error-response" {
		ct.validateErrorResponse(t, w.Body.String())
	}
}

// validateResponseHeaders validates common response headers
func (ct *ContractTester) validateResponseHeaders(t *testing.T, w *httptest.ResponseRecorder) {
	if w.Body.Len() > 0 {
		contentType := w.Header().Get("Content-Type")
		assert.True(t, strings.Contains(contentType, "application/json"),
			"Response Content-Type should be application/json, got: %s", contentType)
	}

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"), "Every response should carry a request ID")
}

// validateResponseSchema validates response body against JSON schema
func (ct *ContractTester) validateResponseSchema(t *testing.T, responseBody, schemaName string) {
	result := ct.validator.ValidateJSONString(schemaName, responseBody)
	if !result.Valid {
		t.Errorf("Response validation failed for schema '%s':\n%s\nErrors: %v",
			schemaName, responseBody, result.Errors)
	}
}

// validateErrorResponse validates error response format
func (ct *ContractTester) validateErrorResponse(t *testing.T, responseBody string) {
	var errorResp map[string]interface{}
	err := json.Unmarshal([]byte(responseBody), &errorResp)
	require.NoError(t, err, "Error response should be valid JSON")

	errorObj, exists := errorResp["error"]
	assert.True(t, exists, "Error response should contain 'error' field")

	if errorMap, ok := errorObj.(map[string]interface{}); ok {
		assert.NotEmpty(t, errorMap["code"], "Error should have a code")
		assert.NotEmpty(t, errorMap["message"], "Error should have a message")
	}
}

func newContractTester(t *testing.T) *ContractTester {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Mode = "test"
	cfg.Data.MoviesPath = "../app/testdata/tmdb_movies.csv"
	cfg.Data.CreditsPath = "../app/testdata/tmdb_credits.csv"
	cfg.Data.RatingsPath = "../app/testdata/ratings.dat"
	cfg.TMDB.APIKey = ""
	cfg.Kafka.Enabled = false
	cfg.Redis.Enabled = false
	cfg.Recommendation.Preference.Factors = 8
	cfg.Recommendation.Preference.Epochs = 10

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	model, err := app.BuildModel(context.Background(), cfg, dataset.NewFileRatingSource(cfg.Data.RatingsPath, logger), logger, nil)
	require.NoError(t, err)

	application, err := app.NewWithModel(cfg, logger, model)
	require.NoError(t, err)

	validator, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	return NewContractTester(validator, application.Router())
}

// RecommendationContractTests returns test cases for the recommendation endpoints
func (ct *ContractTester) RecommendationContractTests() []TestCase {
	return []TestCase{
		{
			Name:           "Recommend with defaults",
			Path:           "/recommend?movie=Inception",
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "recommend-response",
		},
		{
			Name:           "Recommend with misspelled title, user and alpha",
			Path:           "/recommend?movie=inceptoin&user_id=2&alpha=0.25",
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "recommend-response",
		},
		{
			Name:           "Versioned recommend route",
			Path:           "/api/v1/recommend?movie=The%20Dark%20Knight",
			Headers:        map[string]string{"X-Request-ID": "contract-test"},
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "recommend-response",
		},
		{
			Name:           "Unknown movie",
			Path:           "/recommend?movie=Nonexistent%20Movie%20Title%20XYZ",
			ExpectedStatus: http.StatusNotFound,
			ExpectedSchema: "recommend-not-found",
		},
		{
			Name:           "Missing movie parameter",
			Path:           "/recommend",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedSchema: "error-response",
		},
		{
			Name:           "Alpha out of range",
			Path:           "/recommend?movie=Inception&alpha=1.5",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedSchema: "error-response",
		},
		{
			Name:           "Invalid user ID",
			Path:           "/recommend?movie=Inception&user_id=ten",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedSchema: "error-response",
		},
	}
}

// MovieContractTests returns test cases for the movie lookup endpoints
func (ct *ContractTester) MovieContractTests() []TestCase {
	return []TestCase{
		{
			Name:           "Resolve a misspelled title",
			Path:           "/api/v1/movies/resolve?q=the%20matrx",
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "resolve-response",
		},
		{
			Name:           "Resolve without a query",
			Path:           "/api/v1/movies/resolve",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedSchema: "error-response",
		},
		{
			Name:           "Resolve an unknown title",
			Path:           "/api/v1/movies/resolve?q=Nonexistent%20Movie%20Title%20XYZ",
			ExpectedStatus: http.StatusNotFound,
			ExpectedSchema: "error-response",
		},
		{
			Name:           "Similar movies",
			Path:           "/api/v1/movies/27205/similar?k=5",
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "similar-response",
		},
		{
			Name:           "Similar movies for an unknown id",
			Path:           "/api/v1/movies/42/similar",
			ExpectedStatus: http.StatusNotFound,
			ExpectedSchema: "error-response",
		},
		{
			Name:           "Similar movies with an invalid count",
			Path:           "/api/v1/movies/27205/similar?k=-1",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedSchema: "error-response",
		},
		{
			Name:           "Trending movies",
			Path:           "/api/v1/trending",
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "trending-response",
		},
	}
}

// ServiceContractTests returns test cases for the service endpoints
func (ct *ContractTester) ServiceContractTests() []TestCase {
	return []TestCase{
		{
			Name:           "Root message",
			Path:           "/",
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "message-response",
		},
		{
			Name:           "Health",
			Path:           "/health",
			ExpectedStatus: http.StatusOK,
			ExpectedSchema: "health-response",
		},
	}
}

func TestAPIContractCompliance(t *testing.T) {
	ct := newContractTester(t)

	t.Run("Recommendations", func(t *testing.T) {
		ct.APIContractTest(t, ct.RecommendationContractTests())
	})
	t.Run("Movies", func(t *testing.T) {
		ct.APIContractTest(t, ct.MovieContractTests())
	})
	t.Run("Service", func(t *testing.T) {
		ct.APIContractTest(t, ct.ServiceContractTests())
	})
}

func TestRecommendResponseContent(t *testing.T) {
	ct := newContractTester(t)

	w := httptest.NewRecorder()
	ct.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recommend?movie=Inception&user_id=10&alpha=0.6", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		MatchedMovie    string `json:"matched_movie"`
		Recommendations []struct {
			Title string `json:"title"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Inception", body.MatchedMovie)
	require.Len(t, body.Recommendations, 10)

	seen := make(map[string]bool)
	for _, rec := range body.Recommendations {
		assert.NotEqual(t, "Inception", rec.Title)
		assert.False(t, seen[rec.Title], "duplicate title %s", rec.Title)
		seen[rec.Title] = true
	}
}
