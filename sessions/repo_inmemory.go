package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// tokenByteLength is the entropy of session identifiers and OAuth state
// tokens: 32 bytes = 256 bits.
const tokenByteLength = 32

// InMemoryRepo is an in-memory implementation of Repo.
type InMemoryRepo struct {
	mu            sync.Mutex
	sessions      map[string]Session
	pendingStates map[string]struct{}
	nowTime       func() time.Time // injectable for testing
}

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepoOption defines a function type to modify an InMemoryRepo.
type InMemoryRepoOption func(*InMemoryRepo)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo(options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		sessions:      make(map[string]Session),
		pendingStates: make(map[string]struct{}),
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Create(ns NewSession) string {
	sessionID := randomToken()
	now := r.nowTime()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = Session{
		SessionID:    sessionID,
		AccessToken:  ns.AccessToken,
		RefreshToken: ns.RefreshToken,
		InstanceURL:  ns.InstanceURL,
		UserID:       ns.UserID,
		Username:     ns.Username,
		DisplayName:  ns.DisplayName,
		Email:        ns.Email,
		OrgID:        ns.OrgID,
		FirstName:    ns.FirstName,
		LastName:     ns.LastName,
		Timezone:     ns.Timezone,
		Language:     ns.Language,
		Locale:       ns.Locale,
		UserType:     ns.UserType,
		APIURLs:      ns.APIURLs,
		CreatedAt:    now,
		ExpiresAt:    now.Add(SessionTTL),
	}
	return sessionID
}

func (r *InMemoryRepo) Get(sessionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	if r.nowTime().After(session.ExpiresAt) {
		delete(r.sessions, sessionID)
		return Session{}, false
	}
	return session, true
}

func (r *InMemoryRepo) Delete(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	return true
}

func (r *InMemoryRepo) UpdateTokens(sessionID, accessToken, refreshToken string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	session.AccessToken = accessToken
	if refreshToken != "" {
		session.RefreshToken = refreshToken
	}
	r.sessions[sessionID] = session
	return true
}

func (r *InMemoryRepo) UpdateOrgInfo(sessionID, orgName, orgType, instanceName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	if orgName != "" {
		session.OrgName = orgName
	}
	if orgType != "" {
		session.OrgType = orgType
	}
	if instanceName != "" {
		session.InstanceName = instanceName
	}
	r.sessions[sessionID] = session
	return true
}

func (r *InMemoryRepo) CreateOAuthState() string {
	state := randomToken()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingStates[state] = struct{}{}
	return state
}

func (r *InMemoryRepo) ValidateOAuthState(state string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pendingStates[state]; !ok {
		return false
	}
	delete(r.pendingStates, state)
	return true
}

func (r *InMemoryRepo) CleanupExpired() int {
	now := r.nowTime()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// randomToken returns a URL-safe token with tokenByteLength bytes of
// entropy.
func randomToken() string {
	bytes := make([]byte, tokenByteLength)
	if _, err := rand.Read(bytes); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
