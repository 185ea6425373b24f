package authclient

import (
	"errors"
	"testing"
)

func TestFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "cooldown with seconds",
			err:  errors.New("For security purposes, you can only request this after 17 seconds."),
			want: "Please wait 17 seconds and try again.",
		},
		{
			name: "weak password",
			err:  errors.New("Password should be at least 6 characters."),
			want: "Password is too short. It must be at least 6 characters.",
		},
		{
			name: "already registered",
			err:  errors.New("User already registered"),
			want: "This email already has an account. Please sign in (or reset your password).",
		},
		{
			name: "rate limited by message",
			err:  errors.New("Email rate limit exceeded"),
			want: "Too many attempts in a short time. Please wait a bit and try again.",
		},
		{
			name: "rate limited by status",
			err:  &APIError{Status: 429, Message: "slow down"},
			want: "Too many attempts in a short time. Please wait a bit and try again.",
		},
		{
			name: "email not confirmed",
			err:  errors.New("Email not confirmed"),
			want: "Please confirm your email first (check your inbox), then sign in.",
		},
		{
			name: "invalid credentials",
			err:  errors.New("Invalid login credentials"),
			want: "Incorrect email or password.",
		},
		{
			name: "anything else",
			err:  errors.New("unexpected failure decoding frobnicator"),
			want: "Something went wrong. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FriendlyMessage(tt.err); got != tt.want {
				t.Errorf("FriendlyMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
