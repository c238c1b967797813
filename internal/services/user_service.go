package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/errs"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/ledger"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/utils"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The same message covers unknown passports and wrong passwords so the login
// endpoint cannot be used to enumerate accounts.
const invalidCredentialsMsg = "Incorrect passport or password. Please try again."

type UserService struct {
	index      *index.Index
	gateway    ledger.Gateway
	tokens     *TokenService
	logger     *zap.Logger
	metrics    *metrics.MetricsCollector
	bcryptCost int
}

func NewUserService(ix *index.Index, gateway ledger.Gateway, tokens *TokenService, logger *zap.Logger, collector *metrics.MetricsCollector, bcryptCost int) *UserService {
	return &UserService{
		index:      ix,
		gateway:    gateway,
		tokens:     tokens,
		logger:     logger.With(zap.String("service", "user_service")),
		metrics:    collector,
		bcryptCost: bcryptCost,
	}
}

type SignUpInput struct {
	Passport  string
	Role      models.UserRole
	Password  string
	FirstName string
	LastName  string
}

// SignUp creates the local principal record, onboards its identity on the
// ledger, and answers with a fresh credential. The passport uniqueness check
// runs before any side effect; a failed onboarding unwinds the local row so
// the passport can be retried.
func (us *UserService) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	if in.Passport == "" || in.Password == "" {
		return "", errs.New(errs.KindValidation, "passport and password are required")
	}
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}

	taken, err := us.index.PassportTaken(ctx, in.Passport)
	if err != nil {
		return "", errs.Wrap(errs.KindIndexFailed, "failed to check passport", err)
	}
	if taken {
		return "", errs.New(errs.KindValidation, fmt.Sprintf("Passport %s has already been taken.", in.Passport))
	}

	passwordHash, err := utils.EncryptPassword(in.Password, us.bcryptCost)
	if err != nil {
		return "", errs.Wrap(errs.KindValidation, "failed to hash password", err)
	}

	user := &models.User{
		Passport:     in.Passport,
		PasswordHash: passwordHash,
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := us.index.CreateUser(ctx, user); err != nil {
		return "", errs.Wrap(errs.KindIndexFailed, "failed to create user", err)
	}

	if err := us.gateway.OnboardIdentity(ctx, user.Passport, user.ID); err != nil {
		if delErr := us.index.DeleteUser(ctx, user.ID); delErr != nil {
			us.logger.Error("Failed to unwind user after onboarding failure",
				zap.String("user_id", user.ID), zap.Error(delErr))
		}
		return "", mapLedgerError("ledger onboarding failed", err)
	}

	us.metrics.IncrementCounter("users_signed_up", nil)
	us.logger.Info("User signed up",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))

	return us.tokens.Issue(user.Passport)
}

// Login verifies the secret against the stored hash and confirms the
// principal's ledger identity is still registered before issuing a credential.
func (us *UserService) Login(ctx context.Context, passport, password string) (string, error) {
	user, err := us.index.FindUserByPassport(ctx, passport)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.New(errs.KindAuthentication, invalidCredentialsMsg)
		}
		return "", errs.Wrap(errs.KindIndexFailed, "failed to look up user", err)
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return "", errs.New(errs.KindAuthentication, invalidCredentialsMsg)
	}

	registered, err := us.gateway.VerifyIdentity(ctx, user.Passport, user.ID)
	if err != nil {
		return "", mapLedgerError("ledger identity check failed", err)
	}
	if !registered {
		return "", errs.New(errs.KindLedgerFailed, "identity is no longer registered on the ledger")
	}

	us.metrics.IncrementCounter("users_logged_in", nil)
	return us.tokens.Issue(user.Passport)
}

// Authenticate resolves a bearer credential to the acting principal for
// exactly one request. The principal is never cached across requests.
func (us *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	passport, err := us.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := us.index.FindUserByPassport(ctx, passport)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.KindAuthentication, "There is no such user.")
		}
		return nil, errs.Wrap(errs.KindIndexFailed, "failed to look up user", err)
	}
	return user, nil
}

func mapLedgerError(message string, err error) error {
	if ledger.IsUnavailable(err) {
		return errs.Wrap(errs.KindLedgerUnavailable, message, err)
	}
	return errs.Wrap(errs.KindLedgerFailed, message, err)
}
