package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	cachemocks "github.com/zlnvch/noteverse/cache/mocks"
	"github.com/zlnvch/noteverse/models"
	mqmocks "github.com/zlnvch/noteverse/mq/mocks"
	"github.com/zlnvch/noteverse/service"
	"github.com/zlnvch/noteverse/store"
	storemocks "github.com/zlnvch/noteverse/store/mocks"
	"golang.org/x/crypto/bcrypt"
)

// One key pair for the whole package; generation is the slow part
var testKeys = func() service.SigningKeys {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return service.SigningKeys{Private: key, Public: &key.PublicKey}
}()

// Helper to setup the service with mocks
func setupService(t *testing.T) (*service.Service, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMQ) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	svc := service.NewService(mockStore, mockCache, mockMQ, testKeys)
	svc.BcryptCost = bcrypt.MinCost

	return svc, mockStore, mockCache, mockMQ
}

// Helper that creates a channel and wraps a mock call to signal when it's called
func wrapMockWithSignal(call *mock.Call) chan struct{} {
	done := make(chan struct{})
	call.Run(func(args mock.Arguments) {
		close(done)
	})
	return done
}

func waitForSignal(t *testing.T, done chan struct{}) {
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async call")
	}
}

func TestGenerateAndVerifyToken(t *testing.T) {
	svc, _, _, _ := setupService(t)

	token, expiresAt, err := svc.GenerateToken("user123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, time.Now().Unix())

	userId, err := svc.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user123", userId)
}

func TestGenerateToken_Unique(t *testing.T) {
	svc, _, _, _ := setupService(t)

	token1, _, err := svc.GenerateToken("user123")
	assert.NoError(t, err)
	token2, _, err := svc.GenerateToken("user123")
	assert.NoError(t, err)

	assert.NotEqual(t, token1, token2)
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.VerifyToken("invalid.token.string")
	assert.ErrorIs(t, err, service.ErrMalformedToken)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	svc, _, _, _ := setupService(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   "user123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(otherKey)
	assert.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestVerifyToken_NoneAlgorithmRejected(t *testing.T) {
	svc, _, _, _ := setupService(t)

	claims := jwt.RegisteredClaims{
		Subject:   "user123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestAuthenticateToken_Empty(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.AuthenticateToken(context.Background(), "")
	assert.ErrorIs(t, err, service.ErrMissingToken)
}

func TestAuthenticateToken_Malformed(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.AuthenticateToken(context.Background(), "not a token at all")
	assert.ErrorIs(t, err, service.ErrMalformedToken)
}

func TestAuthenticateToken_Expired(t *testing.T) {
	svc, _, _, _ := setupService(t)
	svc.TokenTTL = -time.Minute

	token, _, err := svc.GenerateToken("user123")
	assert.NoError(t, err)

	_, err = svc.AuthenticateToken(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrExpiredToken)
}

func TestAuthenticateToken_Success(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	token, expiresAt, err := svc.GenerateToken("user1")
	assert.NoError(t, err)

	user := models.User{
		Id:    "user1",
		Name:  "testuser",
		Email: "test@example.com",
		Sessions: []models.Session{
			{Token: token, ExpiresAt: expiresAt},
		},
	}
	mockStore.On("GetUserById", ctx, "user1").Return(user, nil)

	gotUser, err := svc.AuthenticateToken(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, user.Id, gotUser.Id)
	assert.Equal(t, user.Name, gotUser.Name)
}

func TestAuthenticateToken_RevokedSession(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	token, _, err := svc.GenerateToken("user1")
	assert.NoError(t, err)

	// Valid signature but the session list no longer carries the token
	user := models.User{Id: "user1", Sessions: []models.Session{}}
	mockStore.On("GetUserById", ctx, "user1").Return(user, nil)

	_, err = svc.AuthenticateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestAuthenticateToken_UserGone(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	token, _, err := svc.GenerateToken("user1")
	assert.NoError(t, err)

	mockStore.On("GetUserById", ctx, "user1").Return(models.User{}, store.ErrItemNotFound)

	_, err = svc.AuthenticateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, service.IsAuthError(service.ErrMissingToken))
	assert.True(t, service.IsAuthError(service.ErrMalformedToken))
	assert.True(t, service.IsAuthError(service.ErrInvalidToken))
	assert.True(t, service.IsAuthError(service.ErrExpiredToken))
	assert.True(t, service.IsAuthError(service.ErrUserNotFound))
	assert.False(t, service.IsAuthError(service.ErrLoginFailed))
	assert.False(t, service.IsAuthError(assert.AnError))
}
