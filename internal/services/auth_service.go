package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/tonermart/backend/internal/access"
)

// ErrInvalidCredentials is returned when the principal is unknown or the
// password does not match. Deliberately indistinct between the two so
// login probing cannot enumerate principals; it is still observably
// different from a capability denial, which names a resource.
var ErrInvalidCredentials = errors.New("invalid credentials")

const sessionKeyPrefix = "session:"

// AuthService resolves login credentials to a signed token carrying the
// principal's name and role. Credentials live in an in-process registry
// populated at bootstrap; sessions are cached in redis when available so
// logout can revoke a token before it expires.
type AuthService struct {
	mu         sync.RWMutex
	principals map[string]principalRecord

	redis     *redis.Client
	validator *validator.Validate
	log       *zap.Logger
	secret    []byte
	expiry    time.Duration
}

type principalRecord struct {
	hash string
	role access.Role
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Name     string `json:"name" validate:"required" example:"emilie"`
	Password string `json:"password" validate:"required" example:"secret"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// NewAuthService builds the auth service. redisClient may be nil.
func NewAuthService(redisClient *redis.Client, log *zap.Logger, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		principals: make(map[string]principalRecord),
		redis:      redisClient,
		validator:  validator.New(),
		log:        log,
		secret:     []byte(secret),
		expiry:     expiry,
	}
}

// RegisterPrincipal stores a principal with an argon2id-hashed password.
// Called at bootstrap, before traffic.
func (s *AuthService) RegisterPrincipal(name, password string, role access.Role) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.principals[name] = principalRecord{hash: hash, role: role}
	s.mu.Unlock()
	return nil
}

// Authenticate checks credentials and returns the resolved principal.
func (s *AuthService) Authenticate(name, password string) (access.Principal, error) {
	s.mu.RLock()
	rec, ok := s.principals[name]
	s.mu.RUnlock()
	if !ok {
		return access.Principal{}, ErrInvalidCredentials
	}
	match, err := verifyPassword(password, rec.hash)
	if err != nil || !match {
		return access.Principal{}, ErrInvalidCredentials
	}
	return access.Principal{Name: name, Role: rec.role}, nil
}

// IssueToken signs a JWT for the principal and records the session.
func (s *AuthService) IssueToken(ctx context.Context, p access.Principal) (string, error) {
	sessionID := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":  p.Name,
		"role": string(p.Role),
		"sid":  sessionID,
		"exp":  time.Now().Add(s.expiry).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	if s.redis != nil {
		if err := s.redis.Set(ctx, sessionKeyPrefix+sessionID, p.Name, s.expiry).Err(); err != nil {
			return "", err
		}
	}
	return token, nil
}

// RevokeSession drops the session so the token stops validating.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID string) error {
	if s.redis == nil || sessionID == "" {
		return nil
	}
	return s.redis.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// SessionAlive reports whether the session is still valid. Without redis
// every parsed token is accepted until it expires.
func (s *AuthService) SessionAlive(ctx context.Context, sessionID string) bool {
	if s.redis == nil {
		return true
	}
	n, err := s.redis.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	return err == nil && n > 0
}

// Login handles principal login
// @Summary Log a principal in
// @Description Resolve name/password to a signed token carrying the principal's capability role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	principal, err := s.Authenticate(req.Name, req.Password)
	if err != nil {
		s.log.Info("login rejected", zap.String("name", req.Name))
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := s.IssueToken(r.Context(), principal)
	if err != nil {
		s.log.Error("token issue failed", zap.String("name", req.Name), zap.Error(err))
		SendErrorResponse(w, "An internal error occurred", http.StatusInternalServerError, nil)
		return
	}

	s.log.Info("login", zap.String("name", principal.Name), zap.String("role", string(principal.Role)))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, Role: string(principal.Role)})
}

// Logout handles principal logout
// @Summary Log a principal out
// @Description Revoke the session carried by the bearer token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err == nil && token.Valid {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				sid, _ := claims["sid"].(string)
				if err := s.RevokeSession(r.Context(), sid); err != nil {
					s.log.Warn("session revoke failed", zap.Error(err))
				}
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func verifyPassword(password, encoded string) (bool, error) {
	parts := strings.SplitN(encoded, ":", 2)
	if len(parts) != 2 {
		return false, errors.New("malformed password hash")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, err
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
