package authclient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var cooldownPattern = regexp.MustCompile(`after\s+(\d+)\s+seconds`)

// FriendlyMessage translates well-known provider errors into text suitable
// for an interactive prompt. Anything unrecognized collapses to a generic
// message; callers that need the raw wording use the error itself.
func FriendlyMessage(err error) string {
	raw := err.Error()
	msg := strings.ToLower(raw)

	// Cooldown like: "you can only request this after 17 seconds."
	if m := cooldownPattern.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("Please wait %s seconds and try again.", m[1])
	}

	// Weak password
	if strings.Contains(msg, "password should be at least") || strings.Contains(msg, "weak_password") || strings.Contains(msg, "weakpassworderror") {
		return "Password is too short. It must be at least 6 characters."
	}

	// Email already has an account
	if strings.Contains(msg, "user already registered") || strings.Contains(msg, "already been registered") {
		return "This email already has an account. Please sign in (or reset your password)."
	}

	// Generic rate limit
	var apiErr *APIError
	rateLimited := errors.As(err, &apiErr) && apiErr.Status == 429
	if rateLimited || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "429") {
		return "Too many attempts in a short time. Please wait a bit and try again."
	}

	// Email not confirmed yet
	if strings.Contains(msg, "email not confirmed") || (strings.Contains(msg, "confirm") && strings.Contains(msg, "email")) {
		return "Please confirm your email first (check your inbox), then sign in."
	}

	// Wrong email / password
	if strings.Contains(msg, "invalid login credentials") {
		return "Incorrect email or password."
	}

	return "Something went wrong. Please try again."
}
