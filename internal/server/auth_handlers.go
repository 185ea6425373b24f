package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/absenced-dev/absenced/internal/auth"
	"github.com/absenced-dev/absenced/internal/authclient"
	"github.com/absenced-dev/absenced/internal/authstate"
	"github.com/absenced-dev/absenced/internal/models"
)

// AuthProviderConfigResponse is what the CLI needs to talk to the provider
// directly: the public base URL and the anon API key. Neither is secret.
type AuthProviderConfigResponse struct {
	AuthURL string `json:"auth_url"`
	AnonKey string `json:"anon_key"`
}

func (s *Server) callbackURL() string {
	return s.config.Server.SiteURL + "/auth/callback"
}

// loginRedirect sends the browser back to the login screen with optional
// banner text and a prefilled email.
func loginRedirect(c *gin.Context, params map[string]string) {
	v := url.Values{}
	for key, value := range params {
		if value != "" {
			v.Set(key, value)
		}
	}
	target := "/login"
	if encoded := v.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusSeeOther, target)
}

// @Summary Start Google sign-in
// @Description Redirects the browser to the provider's OAuth authorize URL
// @Tags auth
// @Success 303
// @Router /auth/google [get]
func (s *Server) startGoogleSignIn(c *gin.Context) {
	authorizeURL := s.authClient.AuthorizeURL(authclient.OAuthParams{
		Provider:   "google",
		RedirectTo: s.callbackURL(),
	})

	s.logger.Info().Str("provider", "google").Msg("Starting OAuth sign-in")
	c.Redirect(http.StatusSeeOther, authorizeURL)
}

// @Summary Send a magic link
// @Description Asks the provider to email a one-time sign-in link
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param email formData string true "Email address"
// @Success 303
// @Router /auth/otp [post]
func (s *Server) sendMagicLink(c *gin.Context) {
	email := c.PostForm("email")

	if err := s.validator.Var(email, "required,email"); err != nil {
		loginRedirect(c, map[string]string{
			"error": "Enter a valid email address.",
			"email": email,
		})
		return
	}

	err := s.authClient.SignInWithOtp(c.Request.Context(), authclient.OtpParams{
		Email:           email,
		EmailRedirectTo: s.callbackURL(),
		CreateUser:      true,
	})
	if err != nil {
		// Provider errors are shown to the user as-is
		s.logger.Warn().Err(err).Str("email", email).Msg("Magic link request failed")
		loginRedirect(c, map[string]string{
			"error": err.Error(),
			"email": email,
		})
		return
	}

	s.logger.Info().Str("email", email).Msg("Magic link sent")
	loginRedirect(c, map[string]string{
		"notice": "Check your inbox. A sign-in link was sent to " + email + ".",
		"email":  email,
	})
}

// @Summary OAuth and magic-link callback
// @Description Finishes a sign-in. The provider puts tokens in the URL fragment, so the first hit renders a small page that moves the fragment into the query string and reloads.
// @Tags auth
// @Success 303
// @Router /auth/callback [get]
func (s *Server) authCallback(c *gin.Context) {
	// Provider-reported failure, e.g. an expired magic link
	if description := c.Query("error_description"); description != "" {
		loginRedirect(c, map[string]string{"error": description})
		return
	}
	if errCode := c.Query("error"); errCode != "" {
		loginRedirect(c, map[string]string{"error": errCode})
		return
	}

	accessToken := c.Query("access_token")
	if accessToken == "" {
		// First hit: tokens are still in the fragment
		c.HTML(http.StatusOK, "callback", gin.H{})
		return
	}

	claims, err := auth.VerifyAccessToken(accessToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Callback token failed verification")
		loginRedirect(c, map[string]string{"error": err.Error()})
		return
	}

	// The token checks out locally; ask the provider for the canonical user
	user, err := s.authClient.GetUser(c.Request.Context(), accessToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Provider rejected callback token")
		loginRedirect(c, map[string]string{"error": err.Error()})
		return
	}

	expiresAt, _ := strconv.ParseInt(c.Query("expires_at"), 10, 64)
	if expiresAt == 0 {
		expiresIn, _ := strconv.ParseInt(c.Query("expires_in"), 10, 64)
		if expiresIn <= 0 {
			expiresIn = 3600
		}
		expiresAt = time.Now().Unix() + expiresIn
	}

	cookieValue, err := auth.EncodeSessionCookie(auth.SessionCookie{
		AccessToken:  accessToken,
		RefreshToken: c.Query("refresh_token"),
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode session cookie")
		loginRedirect(c, map[string]string{"error": "Sign-in failed, please try again."})
		return
	}

	maxAge := int(expiresAt - time.Now().Unix())
	if maxAge <= 0 {
		maxAge = 3600
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, cookieValue, maxAge, "/", "", s.isSecureCookie(), true)

	if err := s.upsertProfile(user, claims.Email); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to upsert user profile")
	}

	s.broadcaster.Emit(authstate.Event{
		Type:   authstate.EventSignedIn,
		UserID: user.ID,
		Email:  user.Email,
	})

	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// @Summary Sign out
// @Description Revokes the provider session and clears the session cookie
// @Tags auth
// @Success 303
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	var providerErr error
	var signedOut *authstate.Event

	if cookie, err := c.Cookie(auth.SessionCookieName); err == nil && cookie != "" {
		if sc, err := auth.DecodeSessionCookie(cookie); err == nil {
			if claims, err := auth.VerifyAccessToken(sc.AccessToken); err == nil {
				signedOut = &authstate.Event{
					Type:   authstate.EventSignedOut,
					UserID: claims.UserID(),
					Email:  claims.Email,
				}
				providerErr = s.authClient.SignOut(c.Request.Context(), sc.AccessToken)
			}
		}
	}

	// The local session is gone regardless of what the provider said
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", s.isSecureCookie(), true)

	if signedOut != nil {
		s.broadcaster.Emit(*signedOut)
	}

	if providerErr != nil {
		s.logger.Warn().Err(providerErr).Msg("Provider sign-out failed")
		loginRedirect(c, map[string]string{"error": providerErr.Error()})
		return
	}

	c.Redirect(http.StatusSeeOther, "/login")
}

// @Summary Auth provider configuration
// @Description Public provider coordinates for the CLI
// @Tags auth
// @Produce json
// @Success 200 {object} AuthProviderConfigResponse
// @Router /auth/config [get]
func (s *Server) getAuthProviderConfig(c *gin.Context) {
	c.JSON(http.StatusOK, AuthProviderConfigResponse{
		AuthURL: s.config.Auth.URL,
		AnonKey: s.config.Auth.AnonKey,
	})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.SessionData
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, sessionData)
}

func (s *Server) isSecureCookie() bool {
	return s.config.Server.Environment == "production"
}

// upsertProfile records the provider user locally. The provider owns the
// account; this row only exists so trips and snapshots have something to
// hang off.
func (s *Server) upsertProfile(user *authclient.User, fallbackEmail string) error {
	email := user.Email
	if email == "" {
		email = fallbackEmail
	}
	now := time.Now().UTC()

	var profile models.UserProfile
	err := s.db.Where("id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.UserProfile{
			ID:         user.ID,
			Email:      email,
			LastSeenAt: &now,
		}
		return s.db.Create(&profile).Error
	}
	if err != nil {
		return err
	}

	return s.db.Model(&profile).Updates(map[string]any{
		"email":        email,
		"last_seen_at": now,
	}).Error
}
