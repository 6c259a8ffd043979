package supabasetest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const userIDKey = "user_id"

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// mint issues an access and refresh token pair for u. Callers hold s.mu.
func (s *Server) mint(u *user) (gin.H, error) {
	now := s.now()
	exp := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Email: u.email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	refresh := uuid.NewString()
	s.refresh[refresh] = u.id

	return gin.H{
		"access_token":  signed,
		"token_type":    "bearer",
		"expires_in":    int64(s.tokenTTL.Seconds()),
		"expires_at":    exp.Unix(),
		"refresh_token": refresh,
		"user":          gin.H{"id": u.id, "email": u.email, "aud": "authenticated"},
	}, nil
}

func authError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "error_code": code, "msg": msg})
}

func (s *Server) signUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		authError(c, http.StatusBadRequest, "validation_failed", "Signup requires a valid email and password")
		return
	}
	if len(req.Password) < 6 {
		authError(c, http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(req.Email)
	if _, ok := s.users[key]; ok {
		authError(c, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}

	u := &user{id: uuid.NewString(), email: req.Email, hash: hash, confirmed: s.autoConfirm}
	s.users[key] = u

	if !u.confirmed {
		c.JSON(http.StatusOK, gin.H{
			"id":                   u.id,
			"email":                u.email,
			"confirmation_sent_at": s.now().UTC(),
		})
		return
	}

	body, err := s.mint(u)
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", err.Error())
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) token(c *gin.Context) {
	switch c.Query("grant_type") {
	case "password":
		s.passwordGrant(c)
	case "refresh_token":
		s.refreshGrant(c)
	default:
		authError(c, http.StatusBadRequest, "validation_failed", "unsupported grant_type")
	}
}

func (s *Server) passwordGrant(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusBadRequest, "validation_failed", "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[strings.ToLower(req.Email)]
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		authError(c, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		return
	}
	if !u.confirmed {
		authError(c, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
		return
	}

	body, err := s.mint(u)
	if err != nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", err.Error())
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) refreshGrant(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		authError(c, http.StatusBadRequest, "validation_failed", "refresh_token required")
		return
	}

	body, status, code, msg := s.rotate(req.RefreshToken)
	if body == nil {
		authError(c, status, code, msg)
		return
	}

	s.mu.Lock()
	h := s.refreshHold
	s.refreshHold = nil
	s.mu.Unlock()
	if h != nil {
		close(h.arrived)
		<-h.release
	}

	c.JSON(http.StatusOK, body)
}

// rotate exchanges a refresh token for a new token pair. On failure body is
// nil and status, code and msg describe the error.
func (s *Server) rotate(refresh string) (body gin.H, status int, code, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refresh[refresh]
	if !ok {
		return nil, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found"
	}
	delete(s.refresh, refresh)

	var u *user
	for _, candidate := range s.users {
		if candidate.id == userID {
			u = candidate
			break
		}
	}
	if u == nil {
		return nil, http.StatusBadRequest, "user_not_found", "User not found"
	}

	body, err := s.mint(u)
	if err != nil {
		return nil, http.StatusInternalServerError, "unexpected_failure", err.Error()
	}
	return body, 0, "", ""
}

func (s *Server) logout(c *gin.Context) {
	userID := c.GetString(userIDKey)

	s.mu.Lock()
	for token, owner := range s.refresh {
		if owner == userID {
			delete(s.refresh, token)
		}
	}
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

// requireUser validates the bearer token and stores its subject in the
// context.
func (s *Server) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "PGRST301", "message": "missing bearer token"})
		return
	}

	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "PGRST301", "message": "JWT expired or invalid"})
		return
	}

	c.Set(userIDKey, cl.Subject)
	c.Next()
}
