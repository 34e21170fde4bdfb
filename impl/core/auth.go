package core

import (
	"ScanFlow/entity"
	"ScanFlow/internal/lib/streamurl"
	"crypto/subtle"
	"fmt"
)

const staticUser = "scanflow"

// AuthenticateByToken accepts the configured API key or a device key stored
// in the repository.
func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	if c.authKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(c.authKey)) == 1 {
		return &entity.UserAuth{Username: staticUser, Token: token}, nil
	}
	if c.repo == nil {
		return nil, fmt.Errorf("invalid token")
	}
	username, err := c.repo.CheckApiKey(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &entity.UserAuth{Username: username, Token: token}, nil
}

// ValidateToken returns the user owning token.
func (c *Core) ValidateToken(token string) (string, error) {
	user, err := c.AuthenticateByToken(token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// GenerateApiKey issues the key a scanner device authenticates with.
func (c *Core) GenerateApiKey(device string) (string, error) {
	if c.repo == nil {
		return "", fmt.Errorf("repository is not set")
	}
	key, err := c.repo.GenerateApiKey(device)
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return key, nil
}

// StreamURL returns a signed socket path for session id, or "" when signing
// is not configured.
func (c *Core) StreamURL(id string) string {
	if c.streamKey == "" {
		return ""
	}
	return streamurl.SignURL(id, c.streamKey, c.streamTTL)
}

// VerifyStream checks a signed socket URL of session id.
func (c *Core) VerifyStream(id, expires, sig string) bool {
	if c.streamKey == "" || sig == "" {
		return false
	}
	return streamurl.Verify(id, expires, sig, c.streamKey)
}
