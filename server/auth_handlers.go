package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	interr "github.com/sfviewer/go-schema-server/internal/errors"
	"github.com/sfviewer/go-schema-server/sessions"
)

const (
	tokenExchangeTimeout = 15 * time.Second
	identityFetchTimeout = 15 * time.Second
)

// LoginHandler starts the OAuth authorization-code flow: record a CSRF
// state and send the browser to the vendor's authorize page.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.sessions.CreateOAuthState()
		http.Redirect(w, r, s.oauthConfig.AuthCodeURL(state), http.StatusFound)
	}
}

// CallbackHandler completes the flow: validate the state, exchange the
// code, fetch identity, create the session and hand the browser back to
// the frontend with the session cookie set.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if vendorErr := query.Get("error"); vendorErr != "" {
			log.Warn().Str("error", vendorErr).Str("description", query.Get("error_description")).
				Msg("oauth callback returned an error")
			s.redirectFrontendError(w, r, vendorErr)
			return
		}

		code, state := query.Get("code"), query.Get("state")
		if code == "" || state == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "missing code or state"})
			return
		}
		if !s.sessions.ValidateOAuthState(state) {
			s.writeError(w, interr.ErrInvalidOAuthState)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), tokenExchangeTimeout)
		defer cancel()
		token, err := s.oauthConfig.Exchange(ctx, code)
		if err != nil {
			log.Err(err).Msg("oauth code exchange failed")
			s.redirectFrontendError(w, r, "token_exchange_failed")
			return
		}

		instanceURL, _ := token.Extra("instance_url").(string)
		identityURL, _ := token.Extra("id").(string)

		identity := s.fetchIdentity(r.Context(), identityURL, token.AccessToken)
		sessionID := s.sessions.Create(sessions.NewSession{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			InstanceURL:  instanceURL,
			UserID:       identity.UserID,
			Username:     identity.Username,
			DisplayName:  identity.DisplayName,
			Email:        identity.Email,
			OrgID:        identity.OrganizationID,
			FirstName:    identity.FirstName,
			LastName:     identity.LastName,
			Timezone:     identity.Timezone,
			Language:     identity.Language,
			Locale:       identity.Locale,
			UserType:     identity.UserType,
			APIURLs:      identity.URLs,
		})

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sessionID,
			Path:     "/",
			MaxAge:   int(sessions.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   s.config.IsProduction(),
		})
		http.Redirect(w, r, s.config.GetFrontendURL(), http.StatusFound)
	}
}

func (s *Server) redirectFrontendError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, s.config.GetFrontendURL()+"/?error="+url.QueryEscape(code), http.StatusFound)
}

// identityResponse is the relevant subset of the Salesforce identity URL
// payload.
type identityResponse struct {
	UserID         string            `json:"user_id"`
	OrganizationID string            `json:"organization_id"`
	Username       string            `json:"username"`
	DisplayName    string            `json:"display_name"`
	Email          string            `json:"email"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Timezone       string            `json:"timezone"`
	Language       string            `json:"language"`
	Locale         string            `json:"locale"`
	UserType       string            `json:"user_type"`
	URLs           map[string]string `json:"urls"`
}

// fetchIdentity resolves the identity URL from the token response. A failed
// fetch degrades gracefully: the org and user ids can still be recovered
// from the identity URL path (…/id/{orgID}/{userID}).
func (s *Server) fetchIdentity(ctx context.Context, identityURL, accessToken string) identityResponse {
	var identity identityResponse
	if identityURL == "" {
		return identity
	}

	ctx, cancel := context.WithTimeout(ctx, identityFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, identityURL, nil)
	if err == nil {
		req.Header.Set("Authorization", "Bearer "+accessToken)
		resp, doErr := http.DefaultClient.Do(req)
		if doErr == nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK &&
				json.NewDecoder(resp.Body).Decode(&identity) == nil && identity.UserID != "" {
				return identity
			}
		} else {
			err = doErr
		}
	}
	log.Warn().Err(err).Msg("identity fetch failed, falling back to identity url path")

	if parsed, parseErr := url.Parse(identityURL); parseErr == nil {
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		// Path shape: id/{orgID}/{userID}
		if len(parts) == 3 && parts[0] == "id" {
			identity.OrganizationID = parts[1]
			identity.UserID = parts[2]
		}
	}
	return identity
}

// AuthStatusHandler reports the login state. An unauthenticated request is
// a 200 with is_authenticated=false, never a 401.
func (s *Server) AuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessionFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusOK, AuthStatus{IsAuthenticated: false})
			return
		}

		apiVersion := s.config.GetSalesforceAPIVersion()
		writeJSON(w, http.StatusOK, AuthStatus{
			IsAuthenticated: true,
			InstanceURL:     session.InstanceURL,
			User: &UserInfo{
				UserID:          session.UserID,
				Username:        session.Username,
				DisplayName:     session.DisplayName,
				Email:           session.Email,
				OrgID:           session.OrgID,
				OrgName:         session.OrgName,
				OrgType:         session.OrgType,
				APIVersion:      apiVersion,
				APIVersionLabel: versionLabel(apiVersion),
			},
		})
	}
}

// LogoutHandler deletes the session and expires the cookie. Always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			s.sessions.Delete(cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   s.config.IsProduction(),
		})
		writeJSON(w, http.StatusOK, DetailResponse{Detail: "logged out"})
	}
}

// RefreshHandler runs the refresh-token grant. A rejected refresh token
// deletes the session: the frontend must send the user through login again.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session.RefreshToken == "" {
			s.writeError(w, interr.ErrNoRefreshToken)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), tokenExchangeTimeout)
		defer cancel()
		token, err := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: session.RefreshToken}).Token()
		if err != nil {
			log.Warn().Err(err).Msg("refresh token rejected, deleting session")
			s.sessions.Delete(session.SessionID)
			s.writeError(w, interr.ErrRefreshTokenExpired)
			return
		}

		s.sessions.UpdateTokens(session.SessionID, token.AccessToken, token.RefreshToken)
		writeJSON(w, http.StatusOK, DetailResponse{Detail: "token refreshed"})
	}
}

// SessionInfoHandler assembles the detailed connection view: org record via
// SOQL (cached back into the session), feature probes and profile lookup.
// Probe failures degrade to "unknown" rather than failing the endpoint.
func (s *Server) SessionInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		svc := s.salesforceService(session)
		apiVersion := s.config.GetSalesforceAPIVersion()

		org := SessionOrg{
			OrgID:        session.OrgID,
			Name:         session.OrgName,
			OrgType:      session.OrgType,
			InstanceName: session.InstanceName,
		}
		if orgInfo, err := svc.OrgInfo(r.Context()); err != nil {
			log.Warn().Err(err).Msg("organization query failed, using cached org fields")
		} else {
			org.Name = orgInfo.Name
			org.OrgType = orgInfo.OrgType
			org.InstanceName = orgInfo.InstanceName
			org.IsSandbox = orgInfo.IsSandbox
			s.sessions.UpdateOrgInfo(session.SessionID, orgInfo.Name, orgInfo.OrgType, orgInfo.InstanceName)
		}

		currency := svc.MultiCurrency(r.Context())
		org.MultiCurrency = currency.State.String()
		if currency.Enabled() {
			org.DefaultCurrency = currency.Value
		}
		org.PersonAccounts = svc.PersonAccounts(r.Context()).State.String()

		user := SessionUser{
			UserID:      session.UserID,
			Username:    session.Username,
			DisplayName: session.DisplayName,
			Email:       session.Email,
			FirstName:   session.FirstName,
			LastName:    session.LastName,
			Timezone:    session.Timezone,
			Language:    session.Language,
			Locale:      session.Locale,
			UserType:    session.UserType,
		}
		if session.UserID != "" {
			if profileID, profileName, err := svc.ProfileInfo(r.Context(), session.UserID); err != nil {
				log.Warn().Err(err).Msg("profile lookup failed")
			} else {
				user.ProfileID = profileID
				user.ProfileName = profileName
			}
		}

		writeJSON(w, http.StatusOK, SessionInfo{
			Connection: ConnectionInfo{
				InstanceURL:  session.InstanceURL,
				APIVersion:   apiVersion,
				RestEndpoint: restEndpoint(session, apiVersion),
				ConnectedAt:  session.CreatedAt,
				ExpiresAt:    session.ExpiresAt,
			},
			User: user,
			Org:  org,
		})
	}
}

// restEndpoint expands the identity URL's REST template
// (…/services/data/v{version}/) with the pinned API version.
func restEndpoint(session sessions.Session, apiVersion string) string {
	template := session.APIURLs["rest"]
	if template == "" {
		if session.InstanceURL == "" {
			return ""
		}
		return session.InstanceURL + "/services/data/" + apiVersion + "/"
	}
	return strings.ReplaceAll(template, "{version}", strings.TrimPrefix(apiVersion, "v"))
}
