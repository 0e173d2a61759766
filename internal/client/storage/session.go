package storage

import "context"

// Session represents the locally persisted session state.
// The token is issued by the external auth flow; this layer only stores
// and reads it. DeviceID is generated on first run and never changes.
type Session struct {
	Username    string `json:"username"`
	UserID      string `json:"user_id"`
	HouseholdID string `json:"household_id"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
	ExpiresAt   int64  `json:"expires_at"`
}

// SessionStorage defines interface for storing session state on client
type SessionStorage interface {
	// SaveSession stores session data as-is
	SaveSession(ctx context.Context, session *Session) error

	// GetSession retrieves stored session data
	// Returns ErrSessionNotFound if no session exists
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes stored session data (logout)
	DeleteSession(ctx context.Context) error

	// EnsureDeviceID returns the stable device ID, generating and
	// persisting one on first call
	EnsureDeviceID(ctx context.Context) (string, error)
}
