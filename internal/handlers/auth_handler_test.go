package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"budgetify/internal/config"
	apperrors "budgetify/internal/errors"
	"budgetify/internal/middleware"
	"budgetify/internal/models"
	"budgetify/internal/pagination"
	"budgetify/internal/services"
	"budgetify/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	createUserFn            func(email, password, firstName, lastName string, role models.UserRole) (*models.User, error)
	getUserByEmailFn        func(email string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	verifyPasswordFn        func(user *models.User, password string) bool
	attemptLoginFn          func(email, password string) (*models.User, error)
	storeRefreshTokenHashFn func(userID string, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
	updateProfileFn         func(userID string, fields services.UserUpdateFields) (*models.User, error)
	listUsersFn             func(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	deleteUserFn            func(actorID, userID string) error
	listEmailsFn            func() ([]string, error)
}

var _ services.UserServicer = (*mockUserService)(nil)

func (m *mockUserService) CreateUser(email, password, firstName, lastName string, role models.UserRole) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName, role)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID string, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

func (m *mockUserService) UpdateProfile(userID string, fields services.UserUpdateFields) (*models.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(userID, fields)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockUserService) ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(page)
	}
	resp := pagination.NewPageResponse[models.User](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockUserService) DeleteUser(actorID, userID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(actorID, userID)
	}
	return nil
}

func (m *mockUserService) ListEmails() ([]string, error) {
	if m.listEmailsFn != nil {
		return m.listEmailsFn()
	}
	return []string{}, nil
}

type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Log(_ string, action, _ string, _ string, _ string, _ map[string]interface{}) {
	m.actions = append(m.actions, action)
}

// --- test helpers ---

const (
	testUserID  = "0190a6f2-7a4e-7c3e-9a55-2f1f1d1f0a01"
	testOtherID = "0190a6f2-7a4e-7c3e-9a55-2f1f1d1f0a02"
	testCardID  = "0190a6f2-7a4e-7c3e-9a55-2f1f1d1f0b01"
	testItemID  = "0190a6f2-7a4e-7c3e-9a55-2f1f1d1f0c01"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
	config.Set(&config.Config{
		JWTSecret:            "handler-test-secret",
		JWTExpirationDur:     time.Minute,
		RefreshExpirationDur: time.Hour,
	})
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.Refresh)
	r.POST("/auth/logout", injectUserID(testUserID), handler.Logout)
	r.GET("/profile", injectUserID(testUserID), handler.GetProfile)
	r.PATCH("/profile", injectUserID(testUserID), handler.UpdateProfile)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	t.Run("returns 201 with a token pair", func(t *testing.T) {
		var gotRole models.UserRole
		var storedHash string
		userSvc := &mockUserService{
			createUserFn: func(email, _, firstName, lastName string, role models.UserRole) (*models.User, error) {
				gotRole = role
				return &models.User{Base: models.Base{ID: testUserID}, Email: email, FirstName: firstName, LastName: lastName, Role: role}, nil
			},
			storeRefreshTokenHashFn: func(_ string, hash string) error {
				storedHash = hash
				return nil
			},
		}
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(userSvc, audit))

		rec := doRequest(r, "POST", "/auth/register",
			`{"email":"test@example.com","password":"password123","first_name":"John","last_name":"Doe"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == nil || result["access_token"] == "" {
			t.Error("expected non-empty access_token")
		}
		refresh, _ := result["refresh_token"].(string)
		if refresh == "" {
			t.Fatal("expected non-empty refresh_token")
		}
		if storedHash != middleware.HashToken(refresh) {
			t.Error("stored hash does not match the issued refresh token")
		}
		if gotRole != models.UserRoleUser {
			t.Errorf("self-registration must create plain users, got role %q", gotRole)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "REGISTER" {
			t.Errorf("expected REGISTER audit entry, got %v", audit.actions)
		}
	})

	t.Run("returns 400 on missing email", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"password":"password123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(_, _, _, _ string, _ models.UserRole) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"dup@example.com","password":"password123"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})

	t.Run("returns 500 when token storage fails", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(email, _, _, _ string, _ models.UserRole) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
			storeRefreshTokenHashFn: func(_ string, _ string) error {
				return fmt.Errorf("db connection lost")
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/register", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 on valid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(email, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != testUserID {
			t.Errorf("expected user id %s, got %v", testUserID, user["id"])
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"test@example.com","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	user := &models.User{Base: models.Base{ID: testUserID}, Email: "test@example.com", IsActive: true}

	t.Run("rotates the refresh token", func(t *testing.T) {
		old, _ := middleware.GenerateRefreshToken(user)
		stored := middleware.HashToken(old)
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(string) (string, error) { return stored, nil },
			storeRefreshTokenHashFn: func(_ string, hash string) error {
				stored = hash
				return nil
			},
			getUserByIDFn: func(string) (*models.User, error) { return user, nil },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, old))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		fresh := parseJSON(t, rec)["refresh_token"].(string)
		if stored != middleware.HashToken(fresh) {
			t.Error("expected the new refresh token hash to be stored")
		}

		// The old token no longer matches the stored hash.
		rec = doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, old))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 on reuse, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TOKEN")
	})

	t.Run("rejects access tokens", func(t *testing.T) {
		access, _ := middleware.GenerateAccessToken(user)
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, access))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects deactivated users", func(t *testing.T) {
		token, _ := middleware.GenerateRefreshToken(user)
		stored := middleware.HashToken(token)
		issued := false
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(string) (string, error) { return stored, nil },
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Email: user.Email, IsActive: false}, nil
			},
			storeRefreshTokenHashFn: func(string, string) error {
				issued = true
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, token))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TOKEN")
		if issued {
			t.Error("no token pair may be issued for a deactivated user")
		}
	})

	t.Run("rejects after logout", func(t *testing.T) {
		token, _ := middleware.GenerateRefreshToken(user)
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(string) (string, error) { return "", nil },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, token))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	cleared := false
	userSvc := &mockUserService{
		storeRefreshTokenHashFn: func(userID string, hash string) error {
			cleared = userID == testUserID && hash == ""
			return nil
		},
	}
	r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

	rec := doRequest(r, "POST", "/auth/logout", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !cleared {
		t.Error("expected refresh token hash to be cleared")
	}
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Email: "me@example.com", Role: models.UserRoleAdmin}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["email"] != "me@example.com" || user["role"] != "admin" {
			t.Errorf("unexpected profile %v", user)
		}
	})

	t.Run("returns 401 without a user", func(t *testing.T) {
		r := gin.New()
		r.GET("/profile", NewAuthHandler(&mockUserService{}, &mockAuditService{}).GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	t.Run("updates the name", func(t *testing.T) {
		var got services.UserUpdateFields
		audit := &mockAuditService{}
		userSvc := &mockUserService{
			updateProfileFn: func(userID string, fields services.UserUpdateFields) (*models.User, error) {
				got = fields
				return &models.User{Base: models.Base{ID: userID}, FirstName: *fields.FirstName}, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, audit))

		rec := doRequest(r, "PATCH", "/profile", `{"first_name":"Ada"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.FirstName == nil || *got.FirstName != "Ada" || got.LastName != nil {
			t.Errorf("unexpected fields %+v", got)
		}
		profile := parseJSON(t, rec)["user"].(map[string]interface{})
		if profile["first_name"] != "Ada" {
			t.Errorf("unexpected profile %v", profile)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "UPDATE_PROFILE" {
			t.Errorf("expected UPDATE_PROFILE audit entry, got %v", audit.actions)
		}
	})

	t.Run("rejects overlong names", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/profile", fmt.Sprintf(`{"last_name":%q}`, strings.Repeat("x", 101)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
