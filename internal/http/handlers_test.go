package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/notify"
	"carepath-portal/internal/repository"
	"carepath-portal/internal/service"
	"carepath-portal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// envelope mirrors Result[T] with a raw result payload for re-decoding.
type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type apiFixture struct {
	server *httptest.Server
	users  *repository.MemoryUsersRepo
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()

	usersRepo := repository.NewMemoryUsersRepo()
	templatesRepo := repository.NewMemoryTemplatesRepo()
	checklistsRepo := repository.NewMemoryChecklistsRepo(usersRepo)
	authRepo := repository.NewMemoryAuthRepo(usersRepo)
	contentRepo := repository.NewMemoryContentRepo()
	searchRepo := repository.NewMemorySearchRepo(usersRepo, checklistsRepo, contentRepo)

	notifier := notify.Noop{}
	authSvc := service.NewAuthService(usersRepo, authRepo, store.NewMemoryKV(), notifier, "http://localhost", time.Hour, logger)
	checklistSvc := service.NewChecklistService(templatesRepo, checklistsRepo, usersRepo, logger)
	userSvc := service.NewUserService(usersRepo, checklistsRepo, checklistSvc, notifier, logger)
	templateSvc := service.NewTemplateService(templatesRepo, logger)
	insightsSvc := service.NewInsightsService(checklistsRepo, logger)
	contentSvc := service.NewContentService(contentRepo, logger)
	searchSvc := service.NewSearchService(searchRepo, logger)
	exportSvc := service.NewExportService(checklistsRepo, logger)

	sessions := NewSessions(authSvc, logger)
	router := NewRouter(logger)
	router.RegisterAuthRoutes(NewAuthHandler(authSvc, sessions, logger))
	router.RegisterPortalRoutes(NewPortalHandler(checklistSvc, userSvc, searchSvc, exportSvc, contentSvc, sessions, logger))
	router.RegisterAdminRoutes(NewAdminHandler(userSvc, checklistSvc, templateSvc, insightsSvc, contentSvc, sessions, logger))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiFixture{server: server, users: usersRepo}
}

// seedAdmin inserts an approved admin directly; admin accounts are never
// self-registered.
func (f *apiFixture) seedAdmin(t *testing.T, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = f.users.CreateUser(context.Background(), &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Site",
		LastName:     "Admin",
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusApproved,
	})
	require.NoError(t, err)
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(resp.Body).Decode(&env)
	}
	return resp, env
}

func (f *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	_, env := f.do(t, http.MethodPost, "/auth/api/v1/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, ResultSuccess, env.Code, "login failed: %s", env.Message)
	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestOnboardingFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAdmin(t, "admin@carepath.example", "admin-pass-123")
	adminToken := f.login(t, "admin@carepath.example", "admin-pass-123")

	// Admin builds the RN template.
	_, env := f.do(t, http.MethodPost, "/admin/api/v1/templates", adminToken, map[string]string{"role": "RN"})
	require.Equal(t, ResultSuccess, env.Code)

	_, env = f.do(t, http.MethodPost, "/admin/api/v1/sections", adminToken, map[string]any{
		"role": "RN", "title": "Paperwork", "sortOrder": 0,
	})
	require.Equal(t, ResultSuccess, env.Code)
	var created struct {
		SectionID string `json:"sectionId"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &created))

	_, env = f.do(t, http.MethodPost, "/admin/api/v1/items", adminToken, map[string]any{
		"sectionId": created.SectionID, "title": "Sign NDA", "dueInDays": 3, "sortOrder": 0,
	})
	require.Equal(t, ResultSuccess, env.Code)

	// New hire registers and cannot log in while pending.
	_, env = f.do(t, http.MethodPost, "/auth/api/v1/register", "", map[string]string{
		"email": "nurse@carepath.example", "password": "nurse-pass-123",
		"firstName": "Jamie", "lastName": "Okafor", "role": "RN",
	})
	require.Equal(t, ResultSuccess, env.Code)
	var reg struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &reg))

	_, env = f.do(t, http.MethodPost, "/auth/api/v1/login", "", map[string]string{
		"email": "nurse@carepath.example", "password": "nurse-pass-123",
	})
	assert.Equal(t, ResultError, env.Code)

	// Approval clones the checklist.
	_, env = f.do(t, http.MethodPost, "/admin/api/v1/users/"+reg.UserID+"/approve", adminToken, nil)
	require.Equal(t, ResultSuccess, env.Code)

	nurseToken := f.login(t, "nurse@carepath.example", "nurse-pass-123")
	_, env = f.do(t, http.MethodGet, "/portal/api/v1/checklist", nurseToken, nil)
	require.Equal(t, ResultSuccess, env.Code)
	var checklistResp struct {
		Checklist struct {
			Sections []struct {
				Title string `json:"title"`
				Items []struct {
					ItemID string `json:"itemId"`
					Status string `json:"status"`
				} `json:"items"`
			} `json:"sections"`
		} `json:"checklist"`
		Progress struct {
			Percentage int `json:"percentage"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &checklistResp))
	require.Len(t, checklistResp.Checklist.Sections, 1)
	require.Len(t, checklistResp.Checklist.Sections[0].Items, 1)
	assert.Equal(t, 0, checklistResp.Progress.Percentage)

	// Completing the only item drives progress to 100.
	itemID := checklistResp.Checklist.Sections[0].Items[0].ItemID
	_, env = f.do(t, http.MethodPut, "/portal/api/v1/checklist/items/"+itemID+"/status", nurseToken, map[string]string{
		"status": domain.ItemStatusComplete,
	})
	require.Equal(t, ResultSuccess, env.Code)
	require.NoError(t, json.Unmarshal(env.Result, &checklistResp))
	assert.Equal(t, 100, checklistResp.Progress.Percentage)

	// Sync with an unchanged template is a no-op.
	_, env = f.do(t, http.MethodPost, "/admin/api/v1/templates/RN/sync", adminToken, map[string]bool{"updateContent": false})
	require.Equal(t, ResultSuccess, env.Code)
	var sync struct {
		UsersUpdated int `json:"usersUpdated"`
		ItemsAdded   int `json:"itemsAdded"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &sync))
	assert.Equal(t, 0, sync.ItemsAdded)
	assert.Equal(t, 0, sync.UsersUpdated)
}

func TestAuthBoundaries(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAdmin(t, "admin@carepath.example", "admin-pass-123")

	// No session.
	resp, env := f.do(t, http.MethodGet, "/portal/api/v1/checklist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, ResultSessionExpired, env.Code)

	// Garbage token.
	resp, _ = f.do(t, http.MethodGet, "/portal/api/v1/checklist", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Non-admin hitting an admin route.
	_, env = f.do(t, http.MethodPost, "/auth/api/v1/register", "", map[string]string{
		"email": "pt@carepath.example", "password": "pt-pass-12345", "firstName": "Sam", "lastName": "Liu", "role": "PT",
	})
	require.Equal(t, ResultSuccess, env.Code)
	var reg struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &reg))

	adminToken := f.login(t, "admin@carepath.example", "admin-pass-123")
	_, env = f.do(t, http.MethodPost, "/admin/api/v1/users/"+reg.UserID+"/approve", adminToken, nil)
	require.Equal(t, ResultSuccess, env.Code)

	ptToken := f.login(t, "pt@carepath.example", "pt-pass-12345")
	resp, _ = f.do(t, http.MethodGet, "/admin/api/v1/users", ptToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Self-registered admins are rejected outright.
	resp, _ = f.do(t, http.MethodPost, "/auth/api/v1/register", "", map[string]string{
		"email": "sneaky@carepath.example", "password": "sneaky-pass-1", "firstName": "S", "lastName": "N", "role": domain.RoleAdmin,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportDownload(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAdmin(t, "admin@carepath.example", "admin-pass-123")
	adminToken := f.login(t, "admin@carepath.example", "admin-pass-123")

	_, env := f.do(t, http.MethodPost, "/auth/api/v1/register", "", map[string]string{
		"email": "rn@carepath.example", "password": "rn-password-1", "firstName": "A", "lastName": "B", "role": "RN",
	})
	require.Equal(t, ResultSuccess, env.Code)
	var reg struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &reg))
	_, env = f.do(t, http.MethodPost, "/admin/api/v1/users/"+reg.UserID+"/approve", adminToken, nil)
	require.Equal(t, ResultSuccess, env.Code)

	token := f.login(t, "rn@carepath.example", "rn-password-1")
	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/portal/api/v1/checklist/export?format=csv", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "onboarding_rn_")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")
}
