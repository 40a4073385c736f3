package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial-hub/internal/auth"
	"financial-hub/internal/export"
	"financial-hub/internal/repository/sqlite"
	"financial-hub/internal/service"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	accountRepo := sqlite.NewAccountRepository(db)
	entryRepo := sqlite.NewEntryRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, accountRepo.Init(ctx))
	require.NoError(t, entryRepo.Init(ctx))

	userService := service.NewUserService(userRepo)
	accountService := service.NewAccountService(accountRepo, entryRepo)
	exportService := export.NewService(accountService, nil, "", "")

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	router := gin.New()
	handler := NewHandler(userService, accountService, exportService, testSecret, time.Hour, logger)
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, ok := decodeBody(t, rec)["token"].(string)
	require.True(t, ok)
	return token
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)

	token, _ := body["token"].(string)
	claims, err := auth.ParseToken(token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, float64(claims.UserID), user["id"])

	// login with the same credentials yields a token for the same user
	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	loginToken, _ := decodeBody(t, rec)["token"].(string)
	loginClaims, err := auth.ParseToken(loginToken, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, loginClaims.UserID)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "ab",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"password": "12345",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	registerUser(t, router, "alice")
	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "alice")

	unknown := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "nobody",
		"password": "secret123",
	})
	wrongPass := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrongpass",
	})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/accounts", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := auth.GenerateToken(1, "alice", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	rec = doJSON(t, router, http.MethodGet, "/api/accounts", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/accounts", token, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/accounts", token, gin.H{"name": "Checking"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	accountID := int64(created["id"].(float64))

	// new account shows up with zero net worth and no latest entry
	rec = doJSON(t, router, http.MethodGet, "/api/accounts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var accounts []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "Checking", accounts[0]["name"])
	assert.Equal(t, 0.0, accounts[0]["netWorth"])
	assert.Nil(t, accounts[0]["latestEntry"])

	rec = doJSON(t, router, http.MethodPut, "/api/accounts/"+itoa(accountID), token, gin.H{"name": "Daily"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Daily", decodeBody(t, rec)["name"])

	rec = doJSON(t, router, http.MethodDelete, "/api/accounts/"+itoa(accountID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/accounts/"+itoa(accountID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntriesFlowWithDerivedValues(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/accounts", token, gin.H{"name": "Portfolio"})
	require.Equal(t, http.StatusCreated, rec.Code)
	accountID := int64(decodeBody(t, rec)["id"].(float64))
	base := "/api/accounts/" + itoa(accountID)

	rec = doJSON(t, router, http.MethodPost, base+"/entries", token, gin.H{
		"entry_date": "2024-01-01", "cash": 100, "investments": 200, "debt": 50,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, base+"/entries", token, gin.H{
		"entry_date": "2024-02-01", "cash": 150, "investments": 250, "debt": 40,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	secondID := int64(decodeBody(t, rec)["id"].(float64))

	rec = doJSON(t, router, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeBody(t, rec)

	entries, _ := detail["entries"].([]any)
	require.Len(t, entries, 2)
	first, _ := entries[0].(map[string]any)
	second, _ := entries[1].(map[string]any)
	assert.Equal(t, "2024-01-01", first["entry_date"])
	assert.Equal(t, "2024-02-01", second["entry_date"])

	assert.Equal(t, 360.0, detail["netWorth"])
	require.NotNil(t, detail["changePercent"])
	assert.InDelta(t, 44.0, detail["changePercent"].(float64), 1e-9)

	// missing numeric fields default to zero, missing date is rejected
	rec = doJSON(t, router, http.MethodPost, base+"/entries", token, gin.H{"entry_date": "2024-03-01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	defaulted := decodeBody(t, rec)
	assert.Equal(t, 0.0, defaulted["cash"])
	assert.Equal(t, 0.0, defaulted["investments"])
	assert.Equal(t, 0.0, defaulted["debt"])

	rec = doJSON(t, router, http.MethodPost, base+"/entries", token, gin.H{"cash": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// update then delete the second entry
	rec = doJSON(t, router, http.MethodPut, base+"/entries/"+itoa(secondID), token, gin.H{
		"entry_date": "2024-02-15", "cash": 175,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody(t, rec)
	assert.Equal(t, "2024-02-15", updated["entry_date"])
	assert.Equal(t, 175.0, updated["cash"])

	rec = doJSON(t, router, http.MethodDelete, base+"/entries/"+itoa(secondID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, base+"/entries/"+itoa(secondID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCrossUserAccessLooksLikeMissing(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := registerUser(t, router, "alice")
	bobToken := registerUser(t, router, "bob")

	rec := doJSON(t, router, http.MethodPost, "/api/accounts", aliceToken, gin.H{"name": "Private"})
	require.Equal(t, http.StatusCreated, rec.Code)
	accountID := int64(decodeBody(t, rec)["id"].(float64))
	base := "/api/accounts/" + itoa(accountID)

	rec = doJSON(t, router, http.MethodPost, base+"/entries", aliceToken, gin.H{"entry_date": "2024-01-01", "cash": 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	entryID := int64(decodeBody(t, rec)["id"].(float64))

	for _, probe := range []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, base, nil},
		{http.MethodPut, base, gin.H{"name": "Mine"}},
		{http.MethodDelete, base, nil},
		{http.MethodPost, base + "/entries", gin.H{"entry_date": "2024-01-01"}},
		{http.MethodPut, base + "/entries/" + itoa(entryID), gin.H{"entry_date": "2024-01-01"}},
		{http.MethodDelete, base + "/entries/" + itoa(entryID), nil},
	} {
		rec := doJSON(t, router, probe.method, probe.path, bobToken, probe.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", probe.method, probe.path)
	}
}

func TestAccountDeleteCascadesToEntries(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/accounts", token, gin.H{"name": "Doomed"})
	require.Equal(t, http.StatusCreated, rec.Code)
	accountID := int64(decodeBody(t, rec)["id"].(float64))
	base := "/api/accounts/" + itoa(accountID)

	rec = doJSON(t, router, http.MethodPost, base+"/entries", token, gin.H{"entry_date": "2024-01-01", "cash": 10})
	require.Equal(t, http.StatusCreated, rec.Code)
	entryID := int64(decodeBody(t, rec)["id"].(float64))

	rec = doJSON(t, router, http.MethodDelete, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, base+"/entries/"+itoa(entryID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportWithoutStorageConfigured(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "alice")

	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		rec := doJSON(t, router, method, "/api/export", token, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "storage service not configured")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
