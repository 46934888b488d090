package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetify/internal/config"
	"budgetify/internal/ledger"
	"budgetify/internal/logger"
	"budgetify/internal/middleware"
	"budgetify/internal/scheduler"
	"budgetify/internal/services"
	"budgetify/internal/testutil"
	"budgetify/internal/validator"
)

const testAPIKey = "cron-key"

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Set(&config.Config{JWTSecret: "test-secret"})
}

// testApp holds the full application stack backed by an in-memory SQLite.
type testApp struct {
	t      *testing.T
	router *gin.Engine
	deps   Deps
}

func setupApp(t *testing.T, now time.Time) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	l := ledger.New(ledger.NewGormStore(db), logger.Nop())
	notifications := services.NewNotificationService(db, time.UTC)
	poster := ledger.NewPoster(l, time.UTC, logger.Nop(), ledger.WithNotifier(notifications))
	sched := scheduler.New(poster, logger.Nop(), scheduler.WithClock(func() time.Time { return now }))

	deps := Deps{
		DB:            db,
		Ledger:        l,
		Runner:        sched,
		PostingAPIKey: testAPIKey,
		Notifications: notifications,
	}
	return &testApp{t: t, router: New(deps), deps: deps}
}

func (app *testApp) request(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), "body: %s", rec.Body.String())
	return result
}

// registerUser registers a new user and returns the access token and user ID.
func (app *testApp) registerUser(email string) (string, string) {
	app.t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","first_name":"Test","last_name":"User"}`, email)
	rec := app.request("POST", "/api/v1/auth/register", body, nil)
	require.Equal(app.t, http.StatusCreated, rec.Code, rec.Body.String())
	result := parseJSON(app.t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), user["id"].(string)
}

// create posts body to path and returns the id of the created resource in envelope key.
func (app *testApp) create(token, path, key, body string) string {
	app.t.Helper()
	rec := app.request("POST", path, body, bearer(token))
	require.Equal(app.t, http.StatusCreated, rec.Code, rec.Body.String())
	return parseJSON(app.t, rec)[key].(map[string]interface{})["id"].(string)
}

func (app *testApp) get(token, path, key string) map[string]interface{} {
	app.t.Helper()
	rec := app.request("GET", path, "", bearer(token))
	require.Equal(app.t, http.StatusOK, rec.Code, rec.Body.String())
	if key == "" {
		return parseJSON(app.t, rec)
	}
	return parseJSON(app.t, rec)[key].(map[string]interface{})
}

func TestPostingFlow_SubscriptionPostedOncePerDay(t *testing.T) {
	now := time.Date(2024, 1, 31, 6, 0, 0, 0, time.UTC)
	app := setupApp(t, now)

	token, _ := app.registerUser("flow@test.com")
	cardID := app.create(token, "/api/v1/cards", "card", `{"title":"Main","balance":100000}`)
	pbID := app.create(token, "/api/v1/piggy-banks", "piggy_bank",
		fmt.Sprintf(`{"card_id":%q,"goal":"Holiday","goal_amount":50000,"saved_amount":20000,"balance":20000}`, cardID))
	subID := app.create(token, "/api/v1/subscriptions", "subscription",
		fmt.Sprintf(`{"card_id":%q,"title":"Streaming","categories":["fun"],"amount":1599,"payment_start_date":"2024-01-31"}`, cardID))

	card := app.get(token, "/api/v1/cards/"+cardID, "card")
	assert.Equal(t, float64(80000), card["balance"])

	// First run posts the subscription.
	rec := app.request("POST", "/api/v1/internal/postings/run", "", map[string]string{"X-API-Key": testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := parseJSON(t, rec)
	assert.Equal(t, float64(1), run["posted"])
	assert.Equal(t, float64(0), run["failed"])

	// Same day again: nothing is due any more.
	rec = app.request("POST", "/api/v1/internal/postings/run", "", map[string]string{"X-API-Key": testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(0), parseJSON(t, rec)["posted"])

	pb := app.get(token, "/api/v1/piggy-banks/"+pbID, "piggy_bank")
	assert.Equal(t, float64(20000-1599), pb["balance"])

	sub := app.get(token, "/api/v1/subscriptions/"+subID, "subscription")
	due, err := time.Parse(time.RFC3339, sub["payment_start_date"].(string))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", due.UTC().Format(time.DateOnly))

	txs := app.get(token, "/api/v1/transactions", "")
	assert.Equal(t, float64(1), txs["total_items"])

	notes := app.get(token, "/api/v1/notifications?unread=true", "")
	assert.Equal(t, float64(1), notes["total_items"])
}

func TestPostingFlow_InsufficientFundsLeavesBalance(t *testing.T) {
	now := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	app := setupApp(t, now)

	token, _ := app.registerUser("broke@test.com")
	cardID := app.create(token, "/api/v1/cards", "card", `{"title":"Main","balance":1000}`)
	pbID := app.create(token, "/api/v1/piggy-banks", "piggy_bank",
		fmt.Sprintf(`{"card_id":%q,"goal":"Rent","balance":500}`, cardID))
	app.create(token, "/api/v1/obligations", "obligation",
		fmt.Sprintf(`{"card_id":%q,"title":"Rent","amount":90000,"payment_start_date":"2024-03-01"}`, cardID))

	rec := app.request("POST", "/api/v1/internal/postings/run", "", map[string]string{"X-API-Key": testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := parseJSON(t, rec)
	assert.Equal(t, float64(1), run["failed"])
	result := run["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_FUNDS", result["error_code"])

	pb := app.get(token, "/api/v1/piggy-banks/"+pbID, "piggy_bank")
	assert.Equal(t, float64(500), pb["balance"])

	txs := app.get(token, "/api/v1/transactions", "")
	assert.Equal(t, float64(0), txs["total_items"])
}

func TestPostingRoutes_Guards(t *testing.T) {
	app := setupApp(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	userToken, _ := app.registerUser("plain@test.com")
	admin := testutil.CreateTestAdmin(t, app.deps.DB)
	adminToken, err := middleware.GenerateAccessToken(admin)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    int
	}{
		{"internal without key", "/api/v1/internal/postings/run", nil, http.StatusUnauthorized},
		{"internal with wrong key", "/api/v1/internal/postings/run", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"internal with key", "/api/v1/internal/postings/run", map[string]string{"X-API-Key": testAPIKey}, http.StatusOK},
		{"admin without token", "/api/v1/admin/postings/run", nil, http.StatusUnauthorized},
		{"admin as plain user", "/api/v1/admin/postings/run", bearer(userToken), http.StatusForbidden},
		{"admin as admin", "/api/v1/admin/postings/run", bearer(adminToken), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request("POST", tt.path, "", tt.headers)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestOwnership_ForeignCardIsNotFound(t *testing.T) {
	app := setupApp(t, time.Now())

	ownerToken, _ := app.registerUser("owner@test.com")
	otherToken, _ := app.registerUser("other@test.com")
	cardID := app.create(ownerToken, "/api/v1/cards", "card", `{"title":"Main","balance":1000}`)

	rec := app.request("GET", "/api/v1/cards/"+cardID, "", bearer(otherToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("POST", "/api/v1/subscriptions",
		fmt.Sprintf(`{"card_id":%q,"title":"Sneaky","amount":100,"payment_start_date":"2024-01-01"}`, cardID),
		bearer(otherToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	app := setupApp(t, time.Now())

	rec := app.request("GET", "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = app.request("OPTIONS", "/api/v1/cards", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSwaggerDocListsRoutes(t *testing.T) {
	app := setupApp(t, time.Now())

	rec := app.request("GET", "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		BasePath    string                     `json:"basePath"`
		Paths       map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	for _, path := range []string{"/cards", "/cards/{id}", "/piggy-banks/{id}", "/profile", "/admin/users/{id}", "/admin/postings/run", "/internal/postings/run"} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.Contains(t, doc.Definitions, "models.Card")
	assert.Contains(t, doc.Definitions, "pagination.PageResponse-models_Transaction")
}

func TestUserManagement(t *testing.T) {
	app := setupApp(t, time.Now())

	rec := app.request("POST", "/api/v1/auth/register", `{"email":"member@test.com","password":"password123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := parseJSON(t, rec)
	memberToken := registered["access_token"].(string)
	memberRefresh := registered["refresh_token"].(string)
	memberID := registered["user"].(map[string]interface{})["id"].(string)

	admin := testutil.CreateTestAdmin(t, app.deps.DB)
	adminToken, err := middleware.GenerateAccessToken(admin)
	require.NoError(t, err)

	// Members edit their own profile.
	rec = app.request("PATCH", "/api/v1/profile", `{"first_name":"Mia","last_name":"Lane"}`, bearer(memberToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Mia", parseJSON(t, rec)["user"].(map[string]interface{})["first_name"])

	// The admin routes are closed to members.
	rec = app.request("GET", "/api/v1/admin/users", "", bearer(memberToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	users := app.get(adminToken, "/api/v1/admin/users", "")
	assert.Equal(t, float64(2), users["total_items"])

	user := app.get(adminToken, "/api/v1/admin/users/"+memberID, "user")
	assert.Equal(t, "Lane", user["last_name"])

	emails := app.get(adminToken, "/api/v1/admin/notifications/emails", "")["emails"].([]interface{})
	assert.Contains(t, emails, "member@test.com")

	rec = app.request("DELETE", "/api/v1/admin/users/"+admin.ID, "", bearer(adminToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.request("DELETE", "/api/v1/admin/users/"+memberID, "", bearer(adminToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request("GET", "/api/v1/admin/users/"+memberID, "", bearer(adminToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A deleted member can no longer refresh or log in.
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, memberRefresh), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = app.request("POST", "/api/v1/auth/login", `{"email":"member@test.com","password":"password123"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
