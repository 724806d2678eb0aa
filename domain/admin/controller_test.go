package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/wiwi-waitlist/config"
	"github.com/akeren/wiwi-waitlist/config/router"
	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/akeren/wiwi-waitlist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "Wiwi-Admin-Test"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ModelRegistry...))
	return db
}

func newAdminServer(t *testing.T, db *gorm.DB, password string) http.Handler {
	t.Helper()
	t.Setenv("METRICS_ENABLED", "false")

	logger := log.NewLoggerWithJSONOutput()
	rs := router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})

	rs.MountController(NewAdminController(db, logger, nil,
		&config.AdminSettings{
			Password:      password,
			SessionSecret: []byte("controller-test-secret"),
			SessionTTL:    time.Hour,
		},
		&config.ExportSettings{Location: time.UTC},
	))

	return rs.GetEngine()
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()

	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	ua := "Mozilla/5.0"
	for i, email := range []string{"early@example.com", "middle@other.net", "late@example.com"} {
		entry := &models.WaitlistEntry{Email: email, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if i == 1 {
			entry.UserAgent = &ua
		}
		require.NoError(t, db.Create(entry).Error)
	}
}

func do(h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("response did not set %s", SessionCookieName)
	return nil
}

func TestAdminController_SessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	h := newAdminServer(t, db, testPassword)

	w := do(h, http.MethodGet, "/v1/admin/waitlist", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(h, http.MethodPost, "/v1/admin/session", `{"password":"wiwi-admin-test"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid password")

	w = do(h, http.MethodPost, "/v1/admin/session", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Zero(t, cookie.MaxAge)
	assert.NotContains(t, w.Header().Get("Set-Cookie"), "Max-Age")

	w = do(h, http.MethodGet, "/v1/admin/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	w = do(h, http.MethodGet, "/v1/admin/waitlist", "", cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list struct {
		Data DashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Data.Total)
	assert.Equal(t, 3, list.Data.Matched)
	assert.Equal(t, "desc", string(list.Data.Order))
	assert.Equal(t, "late@example.com", list.Data.Entries[0].Email)

	w = do(h, http.MethodDelete, "/v1/admin/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/v1/admin/waitlist", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked sessions are rejected")

	w = do(h, http.MethodGet, "/v1/admin/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}

func TestAdminController_ListQuery(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	h := newAdminServer(t, db, testPassword)

	login := do(h, http.MethodPost, "/v1/admin/session", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusCreated, login.Code)

	var created struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.Token)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/waitlist?order=asc&search=EXAMPLE", nil)
	req.Header.Set("Authorization", "Bearer "+created.Data.Token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list struct {
		Data DashboardResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Data.Total)
	assert.Equal(t, 2, list.Data.Matched)
	assert.Equal(t, "early@example.com", list.Data.Entries[0].Email)

	w = do(h, http.MethodGet, "/v1/admin/waitlist?order=sideways", "", sessionCookie(t, login))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminController_ExportReflectsSearch(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	h := newAdminServer(t, db, testPassword)

	login := do(h, http.MethodPost, "/v1/admin/session", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusCreated, login.Code)
	cookie := sessionCookie(t, login)

	w := do(h, http.MethodGet, "/v1/admin/waitlist/export?search=other", "", cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, CSVContentType, w.Header().Get("Content-Type"))
	assert.Equal(t,
		"attachment; filename="+ExportFilename(time.Now()),
		w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSuffix(w.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"middle@other.net","4/1/2025, 10:01:00 AM","N/A","Mozilla/5.0"`, lines[1])
}

func TestAdminController_NoCredentialConfigured(t *testing.T) {
	h := newAdminServer(t, newTestDB(t), "")

	w := do(h, http.MethodPost, "/v1/admin/session", `{"password":"anything"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminController_RejectsInvalidInput(t *testing.T) {
	h := newAdminServer(t, newTestDB(t), testPassword)

	w := do(h, http.MethodPost, "/v1/admin/session", `{"password":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Data []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "password", body.Data[0].Field)
	assert.Equal(t, "This field is required", body.Data[0].Message)

	login := do(h, http.MethodPost, "/v1/admin/session", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusCreated, login.Code)

	w = do(h, http.MethodGet, "/v1/admin/waitlist?search="+strings.Repeat("a", 321), "", sessionCookie(t, login))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
