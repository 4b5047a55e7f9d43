package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"semisto-service/internal/models"
	"semisto-service/internal/util"
)

// Session cookie attributes
const (
	CookieName   = "portal-token"
	CookiePath   = "/"
	CookieMaxAge = 60 * 60 * 24 * 7
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticator checks the single portal credential and the session token
// it hands out. Every session maps to the same partner identity.
type Authenticator struct {
	email        string
	passwordHash []byte
	token        string
	user         models.AuthUser
	logger       *zap.Logger
}

// NewAuthenticator hashes password once; the plain value is not kept
func NewAuthenticator(email, password, token string, user models.AuthUser) (*Authenticator, error) {
	if email == "" || password == "" || token == "" {
		return nil, errors.New("portal credentials and token must be set")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash portal password: %w", err)
	}

	return &Authenticator{
		email:        email,
		passwordHash: hash,
		token:        token,
		user:         user,
		logger:       util.Named("auth"),
	}, nil
}

// DemoUser is the identity behind the demo partner account
func DemoUser(email string) models.AuthUser {
	return models.AuthUser{
		Email:     email,
		Name:      "Sophie Vandenberghe",
		PartnerID: "partner-001",
	}
}

// Login returns the session token for a matching credential pair. Unknown
// email and wrong password fail the same way.
func (a *Authenticator) Login(email, password string) (string, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), []byte(a.email)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))

	if !emailOK || passwordErr != nil {
		util.PortalLoginsTotal.WithLabelValues("failure").Inc()
		a.logger.Info("Portal login rejected")
		return "", ErrInvalidCredentials
	}

	util.PortalLoginsTotal.WithLabelValues("success").Inc()
	a.logger.Info("Portal login", zap.String("partner_id", a.user.PartnerID))
	return a.token, nil
}

// IsAuthorized is exact equality with the issued token
func (a *Authenticator) IsAuthorized(token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) == 1
}

func (a *Authenticator) CurrentUser(token string) (models.AuthUser, bool) {
	if !a.IsAuthorized(token) {
		return models.AuthUser{}, false
	}
	return a.user, true
}
