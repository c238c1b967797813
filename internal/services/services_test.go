package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/content"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/ledger"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/pkg/metrics"
)

// fakeGateway is an in-memory ledger double. It mimics the real gateway's
// contract: transactions get ids, creation content is keyed by report and
// update content by transaction, and injected errors surface unchanged.
type fakeGateway struct {
	mu        sync.Mutex
	txCounter int
	creations map[string]string // reportID -> digest
	updates   map[string]string // transactionID -> digest

	onboarded    map[string]bool
	onboardCalls int
	verifyCalls  int

	errOnboard    error
	errVerify     error
	notRegistered bool
	errSubmit     error
	confirmDigest func(submitted string) string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		creations: make(map[string]string),
		updates:   make(map[string]string),
		onboarded: make(map[string]bool),
	}
}

func (fg *fakeGateway) OnboardIdentity(ctx context.Context, passport, userID string) error {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.onboardCalls++
	if fg.errOnboard != nil {
		return fg.errOnboard
	}
	fg.onboarded[userID] = true
	return nil
}

func (fg *fakeGateway) VerifyIdentity(ctx context.Context, passport, userID string) (bool, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.verifyCalls++
	if fg.errVerify != nil {
		return false, fg.errVerify
	}
	if fg.notRegistered {
		return false, nil
	}
	return true, nil
}

func (fg *fakeGateway) SubmitCreate(ctx context.Context, passport, reportID, digest string) (*ledger.Anchor, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	if fg.errSubmit != nil {
		return nil, fg.errSubmit
	}
	fg.txCounter++
	confirmed := digest
	if fg.confirmDigest != nil {
		confirmed = fg.confirmDigest(digest)
	}
	fg.creations[reportID] = confirmed
	return &ledger.Anchor{
		TransactionID:   fmt.Sprintf("tx-%d", fg.txCounter),
		ConfirmedDigest: confirmed,
	}, nil
}

func (fg *fakeGateway) SubmitUpdate(ctx context.Context, passport, reportID, digest string) (*ledger.Anchor, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	if fg.errSubmit != nil {
		return nil, fg.errSubmit
	}
	fg.txCounter++
	confirmed := digest
	if fg.confirmDigest != nil {
		confirmed = fg.confirmDigest(digest)
	}
	txID := fmt.Sprintf("tx-%d", fg.txCounter)
	fg.updates[txID] = confirmed
	return &ledger.Anchor{TransactionID: txID, ConfirmedDigest: confirmed}, nil
}

func (fg *fakeGateway) ResolveCreationContent(ctx context.Context, passport, reportID string) (string, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	digest, ok := fg.creations[reportID]
	if !ok {
		return "", &ledger.Error{Message: "no creation transaction for report"}
	}
	return digest, nil
}

func (fg *fakeGateway) ResolveUpdateContent(ctx context.Context, passport, transactionID string) (string, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	digest, ok := fg.updates[transactionID]
	if !ok {
		return "", &ledger.Error{Message: "no update transaction"}
	}
	return digest, nil
}

type testEnv struct {
	db      *gorm.DB
	index   *index.Index
	gateway *fakeGateway
	store   content.Store
	tokens  *TokenService
	users   *UserService
	reports *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
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
	gateway := newFakeGateway()

	store, err := content.NewFileStore(t.TempDir(), log)
	require.NoError(t, err)

	tokens := NewTokenService("test-secret", 2*time.Hour, log)

	return &testEnv{
		db:      database,
		index:   ix,
		gateway: gateway,
		store:   store,
		tokens:  tokens,
		users:   NewUserService(ix, gateway, tokens, log, collector, 4),
		reports: NewReportService(ix, gateway, store, log, collector),
	}
}

func (env *testEnv) signUp(t *testing.T, passport string) *models.User {
	t.Helper()
	_, err := env.users.SignUp(context.Background(), SignUpInput{
		Passport:  passport,
		Role:      models.RoleEmployee,
		Password:  "secret123",
		FirstName: "Andriy",
		LastName:  "Melnyk",
	})
	require.NoError(t, err)

	user, err := env.index.FindUserByPassport(context.Background(), passport)
	require.NoError(t, err)
	return user
}
