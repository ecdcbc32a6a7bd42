package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/alumni-server/internal/encryption"
	"github.com/dtroode/alumni-server/internal/mocks"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/password"
	"github.com/dtroode/alumni-server/internal/testutil"
	"github.com/dtroode/alumni-server/internal/token"
)

type authFixture struct {
	auth     *Auth
	store    *testutil.MemoryStore
	notifier *mocks.Notifier
	identity *mocks.IdentityVerifier
	jwt      *token.JWT
	cipher   *encryption.Cipher
	hasher   *password.Hasher
}

func newCipher(t *testing.T) *encryption.Cipher {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	c, err := encryption.New(key, encryption.WithIterations(1000))
	require.NoError(t, err)
	return c
}

func newAuthFixture(t *testing.T, cfg AuthConfig) *authFixture {
	t.Helper()

	f := &authFixture{
		store:    testutil.NewMemoryStore(),
		notifier: &mocks.Notifier{},
		identity: &mocks.IdentityVerifier{},
		jwt:      token.NewJWT(token.Options{AccessSecret: "access", RefreshSecret: "refresh"}),
		cipher:   newCipher(t),
		hasher:   password.NewHasher(bcrypt.MinCost),
	}

	var sealer model.TokenSealer
	if cfg.EncryptSessionTokens {
		sealer = f.cipher
	}
	log := testutil.MakeNoopLogger()
	tokens := NewTokenService(f.jwt, sealer, log)
	f.auth = NewAuth(cfg, f.store, f.hasher, tokens, f.identity, f.notifier, log)
	return f
}

func (f *authFixture) allowNotifications() {
	f.notifier.On("SendVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("SendWelcome", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (f *authFixture) userByEmail(t *testing.T, email string) model.User {
	t.Helper()
	for _, u := range f.store.Users() {
		if u.Email == email {
			return u
		}
	}
	t.Fatalf("user %s not found", email)
	return model.User{}
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:      email,
		Password:   "Passw0rd!",
		Name:       "Ana",
		Department: model.DepartmentTEP,
		ClassYear:  2020,
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
