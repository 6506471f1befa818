package mockbackend

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vastram/internal/api"
	"vastram/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errEmailTaken = errors.New("User already exists with this email")

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("mockbackend: read random secret: %v", err))
	}
	return b
}

func (s *Server) signingKey() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret
}

// issueToken signs an HS256 token whose subject is the user id.
func (s *Server) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		Issuer:    "vastram-mock",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey())
}

func (s *Server) parseToken(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	keyFunc := func(*jwt.Token) (interface{}, error) { return s.signingKey(), nil }
	_, err := jwt.ParseWithClaims(raw, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c)
		if raw == "" {
			fail(c, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}
		claims, err := s.parseToken(raw)
		if err != nil {
			logging.MockDebug("Rejected token: %v", err)
			fail(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		s.mu.Lock()
		acct, found := s.byID[claims.Subject]
		revoked := s.revoked[raw]
		s.mu.Unlock()
		if !found || revoked {
			fail(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		c.Set(ctxAccount, acct)
		c.Set("token", raw)
		c.Next()
	}
}

func current(c *gin.Context) *account {
	return c.MustGet(ctxAccount).(*account)
}

// RevokeAll invalidates every token issued so far, as if the signing key
// had rotated.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = randomSecret()
}

// createAccount registers a user. Caller must not hold s.mu.
func (s *Server) createAccount(req api.RegisterRequest) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, exists := s.accounts[email]; exists {
		return nil, errEmailTaken
	}
	s.userSeq++
	acct := &account{
		user: api.User{
			ID:             fmt.Sprintf("u%04d", s.userSeq),
			Name:           strings.TrimSpace(req.Name),
			Email:          email,
			Phone:          req.Phone,
			Address:        req.Address,
			MembershipTier: api.TierBronze,
			Role:           "customer",
			CreatedAt:      s.now().UTC(),
		},
		passwordHash: hash,
	}
	s.accounts[email] = acct
	s.byID[acct.user.ID] = acct
	return acct, nil
}

// SetTier changes a user's membership tier.
func (s *Server) SetTier(email, tier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.accounts[strings.ToLower(email)]
	if found {
		acct.user.MembershipTier = tier
	}
	return found
}

type authPayload struct {
	Token string   `json:"token"`
	User  api.User `json:"user"`
}

func (s *Server) register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	acct, err := s.createAccount(req)
	if errors.Is(err, errEmailTaken) {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	logging.Mock("Registered %s", acct.user.Email)
	ok(c, http.StatusCreated, "User registered successfully", authPayload{Token: token, User: acct.user})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	s.mu.Lock()
	acct, found := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !found || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	logging.Mock("Login %s", acct.user.Email)
	ok(c, http.StatusOK, "Login successful", authPayload{Token: token, User: s.userOf(acct)})
}

func (s *Server) userOf(acct *account) api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return acct.user
}

func (s *Server) me(c *gin.Context) {
	ok(c, http.StatusOK, "", gin.H{"user": s.userOf(current(c))})
}

func (s *Server) logout(c *gin.Context) {
	s.mu.Lock()
	s.revoked[c.GetString("token")] = true
	s.mu.Unlock()
	ok(c, http.StatusOK, "Logged out successfully", nil)
}
