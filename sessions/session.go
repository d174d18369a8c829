// Package sessions holds the process-wide store of authenticated Salesforce
// sessions plus the pending OAuth CSRF states. Sessions are volatile by
// design: a restart logs everyone out.
package sessions

import "time"

// SessionTTL is the absolute lifetime of a session; it matches the
// session cookie max-age.
const SessionTTL = 7 * 24 * time.Hour

// Session pairs one browser/user with one Salesforce org.
type Session struct {
	SessionID    string
	AccessToken  string
	RefreshToken string // empty when the grant omitted one
	InstanceURL  string

	// Core identity from the token response / identity URL
	UserID      string
	Username    string
	DisplayName string
	Email       string
	OrgID       string

	// Extended identity fields from the identity URL
	FirstName string
	LastName  string
	Timezone  string
	Language  string
	Locale    string
	UserType  string
	APIURLs   map[string]string // per-API-surface URL templates ("rest", "enterprise", ...)

	// Org display fields, cached lazily after a SOQL lookup
	OrgName      string
	OrgType      string
	InstanceName string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession carries everything needed to create a Session. The store fills
// in the identifier and timestamps.
type NewSession struct {
	AccessToken  string
	RefreshToken string
	InstanceURL  string

	UserID      string
	Username    string
	DisplayName string
	Email       string
	OrgID       string

	FirstName string
	LastName  string
	Timezone  string
	Language  string
	Locale    string
	UserType  string
	APIURLs   map[string]string
}

// Repo is the session store contract. Expired sessions are never returned:
// Get deletes them on sight, and CleanupExpired sweeps the rest.
type Repo interface {
	// Create stores a new session and returns its identifier.
	Create(ns NewSession) string

	// Get returns the session, or false if absent or expired. An expired
	// session is deleted as a side effect.
	Get(sessionID string) (Session, bool)

	// Delete removes a session, reporting whether it existed. Idempotent.
	Delete(sessionID string) bool

	// UpdateTokens overwrites the access token, and the refresh token only
	// when a non-empty one is supplied. Returns false if the session does
	// not exist.
	UpdateTokens(sessionID, accessToken, refreshToken string) bool

	// UpdateOrgInfo overwrites each org display field only when a non-empty
	// value is supplied. Safe to call redundantly.
	UpdateOrgInfo(sessionID, orgName, orgType, instanceName string) bool

	// CreateOAuthState records and returns a single-use CSRF state token.
	CreateOAuthState() string

	// ValidateOAuthState consumes a state token, returning true exactly once
	// per token. Unknown or already-consumed tokens return false.
	ValidateOAuthState(state string) bool

	// CleanupExpired removes every session past its expiry and returns the
	// count removed. Safe to run concurrently with all other operations.
	CleanupExpired() int
}
