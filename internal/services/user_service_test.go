package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/errs"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/ledger"
)

func TestSignUpIssuesCredentialAndOnboards(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.users.SignUp(context.Background(), SignUpInput{
		Passport:  "AB123456",
		Role:      models.RoleEmployee,
		Password:  "secret123",
		FirstName: "Andriy",
		LastName:  "Melnyk",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, env.gateway.onboardCalls)

	passport, err := env.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "AB123456", passport)
}

func TestSignUpDuplicatePassportHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "AB123456")
	callsBefore := env.gateway.onboardCalls

	_, err := env.users.SignUp(context.Background(), SignUpInput{
		Passport: "AB123456",
		Role:     models.RoleEmployee,
		Password: "another",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Contains(t, err.Error(), "has already been taken")

	// No second ledger onboarding happened.
	assert.Equal(t, callsBefore, env.gateway.onboardCalls)
}

func TestSignUpUnwindsUserWhenOnboardingFails(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.errOnboard = &ledger.Error{Message: "issuance rejected"}

	_, err := env.users.SignUp(context.Background(), SignUpInput{
		Passport: "AB123456",
		Role:     models.RoleEmployee,
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindLedgerFailed, errs.KindOf(err))

	// The passport is free again for a retry.
	taken, err := env.index.PassportTaken(context.Background(), "AB123456")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestLoginFoldsUnknownPassportAndWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "AB123456")

	_, errUnknown := env.users.Login(context.Background(), "ZZ000000", "secret123")
	_, errWrongPw := env.users.Login(context.Background(), "AB123456", "wrong")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.Equal(t, errs.KindAuthentication, errs.KindOf(errUnknown))
	assert.Equal(t, errs.KindAuthentication, errs.KindOf(errWrongPw))
	// Identical message so the endpoint cannot be used for enumeration.
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLoginChecksLedgerIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "AB123456")

	env.gateway.errVerify = &ledger.Error{Message: "gateway down", Unavailable: true}
	_, err := env.users.Login(context.Background(), "AB123456", "secret123")
	require.Error(t, err)
	assert.Equal(t, errs.KindLedgerUnavailable, errs.KindOf(err))

	env.gateway.errVerify = nil
	env.gateway.notRegistered = true
	_, err = env.users.Login(context.Background(), "AB123456", "secret123")
	require.Error(t, err)
	assert.Equal(t, errs.KindLedgerFailed, errs.KindOf(err))
}

func TestLoginSucceedsAndIssuesCredential(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "AB123456")

	token, err := env.users.Login(context.Background(), "AB123456", "secret123")
	require.NoError(t, err)

	user, err := env.users.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "AB123456", user.Passport)
}

func TestAuthenticateUnknownPrincipal(t *testing.T) {
	env := newTestEnv(t)

	// Credential is valid but no local record backs the passport.
	token, err := env.tokens.Issue("GHOST")
	require.NoError(t, err)

	_, err = env.users.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, errs.KindAuthentication, errs.KindOf(err))
}
