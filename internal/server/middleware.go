package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/absenced-dev/absenced/internal/auth"
	"github.com/absenced-dev/absenced/internal/models"
)

const (
	bearerPrefix = "Bearer "
)

var (
	ErrNoSession         = errors.New("no session")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrSessionExpired    = errors.New("session expired")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// resolveSession finds the provider access token on the request (session
// cookie for browsers, Authorization header for the CLI), verifies it
// locally against the provider JWT secret, and returns session data. An
// expired token is simply a missing session; there is no refresh here.
func resolveSession(c *gin.Context) (*auth.SessionData, error) {
	token := ""
	method := ""

	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie != "" {
		sc, err := auth.DecodeSessionCookie(cookie)
		if err != nil {
			return nil, ErrInvalidToken
		}
		if sc.ExpiresAt > 0 && time.Now().Unix() >= sc.ExpiresAt {
			return nil, ErrSessionExpired
		}
		token = sc.AccessToken
		method = "cookie"
	} else if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		bearer, err := extractBearerToken(authHeader)
		if err != nil {
			return nil, err
		}
		token = bearer
		method = "bearer"
	} else {
		return nil, ErrNoSession
	}

	claims, err := auth.VerifyAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &auth.SessionData{
		UserID:     claims.UserID(),
		Email:      claims.Email,
		AuthMethod: method,
	}, nil
}

// ensureProfile creates the user's profile row on first contact. Browser
// sign-ins upsert at the callback; this covers CLI users whose first
// request is already authenticated.
func ensureProfile(db *gorm.DB, sessionData *auth.SessionData) error {
	var profile models.UserProfile
	err := db.Where("id = ?", sessionData.UserID).First(&profile).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	profile = models.UserProfile{
		ID:         sessionData.UserID,
		Email:      sessionData.Email,
		LastSeenAt: &now,
	}
	return db.Create(&profile).Error
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// SessionAuthMiddleware authenticates API requests from both web and CLI
func SessionAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, err := resolveSession(c)
		if err != nil {
			var message string
			switch err {
			case ErrNoSession:
				message = "Missing session"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			case ErrSessionExpired:
				message = "Session expired"
			default:
				message = "Invalid or expired token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		if err := ensureProfile(db, sessionData); err != nil {
			log.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to ensure user profile")
			respondWithError(c, log, http.StatusInternalServerError, err, "Internal server error")
			return
		}

		setSession(c, sessionData)

		c.Next()
	}
}

// WebAuthMiddleware authenticates browser page requests. Anything without
// a valid session cookie is sent back to the login screen.
func WebAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, err := resolveSession(c)
		if err != nil {
			// An expired session just means signed out
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		if err := ensureProfile(db, sessionData); err != nil {
			log.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to ensure user profile")
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		setSession(c, sessionData)

		c.Next()
	}
}
