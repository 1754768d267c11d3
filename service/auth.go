package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/zlnvch/noteverse/models"
	"github.com/zlnvch/noteverse/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingToken   = errors.New("token not found")
	ErrMalformedToken = errors.New("token is malformed")
	ErrInvalidToken   = errors.New("token signature is invalid")
	ErrExpiredToken   = errors.New("token is expired")
	ErrUserNotFound   = errors.New("user not found for token")
	ErrLoginFailed    = errors.New("email or password incorrect")
	ErrInvalidUpdate  = errors.New("invalid update")
	ErrNotFound       = errors.New("data not found")
)

// IsAuthError reports whether err is one of the authentication failures
// that a handler maps to a 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrUserNotFound)
}

// SessionsRevokedMessage tells live consumers which sessions just died.
// Token is set for a single logout, All for logout-all and password changes.
type SessionsRevokedMessage struct {
	UserId string `json:"userId"`
	Token  string `json:"token,omitempty"`
	All    bool   `json:"all,omitempty"`
}

// GenerateToken issues a signed RS256 token for the user. The jti claim
// makes tokens issued within the same second distinct.
func (s *Service) GenerateToken(userId string) (string, int64, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", 0, err
	}

	now := time.Now()
	expiresAt := now.Add(s.TokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   userId,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        jti.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.Keys.Private)
	if err != nil {
		return "", 0, err
	}

	return signedToken, expiresAt.Unix(), nil
}

// VerifyToken checks the signature and claims and returns the subject.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return s.Keys.Public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpiredToken
		default:
			return "", ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// AuthenticateToken resolves a token to its user. The token must verify
// AND still be listed in the user's sessions, so a logged-out token is
// rejected even before its expiry.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (models.User, error) {
	if len(token) == 0 {
		return models.User{}, ErrMissingToken
	}

	if !jwtStructureRegex.MatchString(token) {
		return models.User{}, ErrMalformedToken
	}

	userId, err := s.VerifyToken(token)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.Store.GetUserById(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	for _, session := range user.Sessions {
		if session.Token == token {
			return user, nil
		}
	}

	// Verified but revoked: treat the same as an unknown user
	return models.User{}, ErrUserNotFound
}

func (s *Service) Signup(ctx context.Context, name string, email string, password string) (models.User, string, int64, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := ValidateName(name); err != nil {
		return models.User{}, "", 0, err
	}
	if err := ValidateEmail(email); err != nil {
		return models.User{}, "", 0, err
	}
	if err := ValidatePassword(password); err != nil {
		return models.User{}, "", 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return models.User{}, "", 0, err
	}

	user, err := s.Store.CreateUser(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return models.User{}, "", 0, err
	}

	return s.createSession(ctx, user)
}

// Compared against when the email lookup misses, so a missing account
// costs the same time as a wrong password.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func (s *Service) Login(ctx context.Context, email string, password string) (models.User, string, int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
			return models.User{}, "", 0, ErrLoginFailed
		}
		return models.User{}, "", 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, "", 0, ErrLoginFailed
	}

	// Login is the only place expired sessions get pruned
	user.Sessions = pruneExpiredSessions(user.Sessions)

	return s.createSession(ctx, user)
}

// createSession issues a token, appends it to the user's session list
// and persists the whole list.
func (s *Service) createSession(ctx context.Context, user models.User) (models.User, string, int64, error) {
	token, expiresAt, err := s.GenerateToken(user.Id)
	if err != nil {
		return models.User{}, "", 0, err
	}

	user.Sessions = append(user.Sessions, models.Session{
		Token:     token,
		ExpiresAt: expiresAt,
	})

	if err := s.Store.UpdateUserSessions(ctx, user.Id, user.Sessions); err != nil {
		return models.User{}, "", 0, err
	}

	return user, token, expiresAt, nil
}

func pruneExpiredSessions(sessions []models.Session) []models.Session {
	now := time.Now().Unix()

	kept := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.ExpiresAt > now {
			kept = append(kept, session)
		}
	}

	return kept
}

// Logout removes the given token from the user's sessions. An empty
// token is a no-op, a token that was already pruned just persists the
// unchanged list.
func (s *Service) Logout(ctx context.Context, user models.User, token string) error {
	if len(token) == 0 {
		return nil
	}

	kept := make([]models.Session, 0, len(user.Sessions))
	for _, session := range user.Sessions {
		if session.Token != token {
			kept = append(kept, session)
		}
	}

	if err := s.Store.UpdateUserSessions(ctx, user.Id, kept); err != nil {
		return err
	}

	s.publishSessionsRevoked(SessionsRevokedMessage{UserId: user.Id, Token: token})

	return nil
}

// LogoutAll revokes every session of the user.
func (s *Service) LogoutAll(ctx context.Context, user models.User) error {
	if err := s.Store.UpdateUserSessions(ctx, user.Id, []models.Session{}); err != nil {
		return err
	}

	s.publishSessionsRevoked(SessionsRevokedMessage{UserId: user.Id, All: true})

	return nil
}

// ChangePassword rotates the password hash and revokes every session in
// the same write.
func (s *Service) ChangePassword(ctx context.Context, user models.User, oldPassword string, newPassword string) error {
	if len(oldPassword) == 0 || len(newPassword) == 0 {
		return ErrInvalidUpdate
	}

	if oldPassword == newPassword {
		return ErrInvalidUpdate
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidUpdate
	}

	if err := ValidatePassword(newPassword); err != nil {
		return ErrInvalidUpdate
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.BcryptCost)
	if err != nil {
		return err
	}

	if err := s.Store.UpdateUserCredentials(ctx, user.Id, string(hash), []models.Session{}); err != nil {
		return err
	}

	s.publishSessionsRevoked(SessionsRevokedMessage{UserId: user.Id, All: true})

	return nil
}

// Async side-effect - callers don't wait on the broadcast
func (s *Service) publishSessionsRevoked(msg SessionsRevokedMessage) {
	go func() {
		if msgBytes, err := json.Marshal(msg); err == nil {
			s.Cache.Publish(context.Background(), "sessions-revoked", msgBytes)
		}
	}()
}
