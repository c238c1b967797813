package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/content"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/ledger"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/services"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/pkg/metrics"
)

// stubGateway approves everything and counts calls, so tests can assert the
// ledger is never touched by unauthenticated requests.
type stubGateway struct {
	mu        sync.Mutex
	calls     int
	txCounter int
	creations map[string]string
	updates   map[string]string
}

func newStubGateway() *stubGateway {
	return &stubGateway{creations: map[string]string{}, updates: map[string]string{}}
}

func (sg *stubGateway) count() int {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	return sg.calls
}

func (sg *stubGateway) OnboardIdentity(ctx context.Context, passport, userID string) error {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.calls++
	return nil
}

func (sg *stubGateway) VerifyIdentity(ctx context.Context, passport, userID string) (bool, error) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.calls++
	return true, nil
}

func (sg *stubGateway) SubmitCreate(ctx context.Context, passport, reportID, digest string) (*ledger.Anchor, error) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.calls++
	sg.txCounter++
	sg.creations[reportID] = digest
	return &ledger.Anchor{TransactionID: fmt.Sprintf("tx-%d", sg.txCounter), ConfirmedDigest: digest}, nil
}

func (sg *stubGateway) SubmitUpdate(ctx context.Context, passport, reportID, digest string) (*ledger.Anchor, error) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.calls++
	sg.txCounter++
	txID := fmt.Sprintf("tx-%d", sg.txCounter)
	sg.updates[txID] = digest
	return &ledger.Anchor{TransactionID: txID, ConfirmedDigest: digest}, nil
}

func (sg *stubGateway) ResolveCreationContent(ctx context.Context, passport, reportID string) (string, error) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.calls++
	return sg.creations[reportID], nil
}

func (sg *stubGateway) ResolveUpdateContent(ctx context.Context, passport, transactionID string) (string, error) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.calls++
	return sg.updates[transactionID], nil
}

func newTestRouter(t *testing.T) (*Router, *stubGateway) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(&models.User{}, &models.Report{}, &models.Version{}))

	log := zap.NewNop()
	collector := metrics.NewMetricsCollector()
	ix := index.New(database, log)
	gateway := newStubGateway()
	store, err := content.NewFileStore(t.TempDir(), log)
	require.NoError(t, err)

	tokens := services.NewTokenService("test-secret", 2*time.Hour, log)
	users := services.NewUserService(ix, gateway, tokens, log, collector, 4)
	reports := services.NewReportService(ix, gateway, store, log, collector)

	router := NewRouter(log, collector, users, reports, ix)
	router.SetupRoutes()
	return router, gateway
}

func doJSON(t *testing.T, router *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.GetEngine().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnauthenticatedRequestsAreRejectedBeforeAnySideEffect(t *testing.T) {
	router, gateway := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/reports"},
		{http.MethodPost, "/api/reports"},
		{http.MethodGet, "/api/users"},
	}
	for _, p := range paths {
		w := doJSON(t, router, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}

	w := doJSON(t, router, http.MethodGet, "/api/reports", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, 0, gateway.count())
}

func TestSignUpCreateUpdateReadOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"passport":  "AB123456",
		"role":      "EMPLOYEE",
		"password":  "secret123",
		"firstName": "Andriy",
		"lastName":  "Melnyk",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var signup struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	require.NotEmpty(t, signup.Token)

	w = doJSON(t, router, http.MethodPost, "/api/reports", signup.Token, map[string]string{
		"text": `{"job":"clerk"}`,
		"type": "job-order",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID            string `json:"id"`
		VersionsCount int    `json:"versionsCount"`
		Text          string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 1, created.VersionsCount)
	assert.Equal(t, `{"job":"clerk"}`, created.Text)

	w = doJSON(t, router, http.MethodPut, "/api/reports/"+created.ID, signup.Token, map[string]string{
		"text": `{"job":"manager"}`,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/reports/"+created.ID, signup.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var read struct {
		VersionsCount int    `json:"versionsCount"`
		Text          string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &read))
	assert.Equal(t, 2, read.VersionsCount)
	assert.Equal(t, `{"job":"manager"}`, read.Text)

	w = doJSON(t, router, http.MethodGet, "/api/reports/"+created.ID+"/versions", signup.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var versions struct {
		TotalCount int `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &versions))
	assert.Equal(t, 2, versions.TotalCount)
}

func TestDuplicatePassportSignUp(t *testing.T) {
	router, _ := newTestRouter(t)

	body := map[string]string{
		"passport": "AB123456",
		"role":     "EMPLOYEE",
		"password": "secret123",
	}
	w := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/signup", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "has already been taken")
}
