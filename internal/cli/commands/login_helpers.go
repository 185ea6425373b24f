package commands

import "github.com/absenced-dev/absenced/internal/cli/auth"

// keyringTokenStore wraps the auth package for production use
type keyringTokenStore struct{}

func (d *keyringTokenStore) SaveToken(serverURL, token string) error {
	return auth.SaveToken(serverURL, token)
}
