// Package server is the HTTP surface of the schema service: session-cookie
// auth against Salesforce OAuth, schema browsing endpoints and the Data
// Cloud endpoints. Handlers are thin; the orchestration lives in the
// salesforce and datacloud packages.
package server

import (
	"fmt"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sfviewer/go-schema-server/cache"
	"github.com/sfviewer/go-schema-server/datacloud"
	"github.com/sfviewer/go-schema-server/internal/config"
	"github.com/sfviewer/go-schema-server/salesforce"
	"github.com/sfviewer/go-schema-server/sessions"
)

// Cache sizing. All caches are process-local; restarting the service only
// costs re-fetches.
const (
	objectCacheSize = 50
	objectCacheTTL  = 10 * time.Minute

	dcEntityCacheSize = 100
	dcEntityCacheTTL  = 5 * time.Minute

	dcCredentialCacheSize = 100
	dcCredentialCacheTTL  = time.Hour
)

type Server struct {
	env         string // Environment (e.g., "DEV", "PROD")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	sessions    sessions.Repo
	oauthConfig *oauth2.Config

	objectCache   *salesforce.ObjectListCache
	dcCredCache   *datacloud.CredentialCache
	dcEntityCache *datacloud.EntityCache
}

func New(cfg config.Config, sessionRepo sessions.Repo) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		sessions: sessionRepo,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GetSalesforceClientID(),
			ClientSecret: cfg.GetSalesforceClientSecret(),
			RedirectURL:  cfg.GetSalesforceCallbackURL(),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.GetSalesforceAuthURL(),
				TokenURL: cfg.GetSalesforceTokenURL(),
			},
		},
		objectCache:   cache.New[string, []salesforce.ObjectBasicInfo](objectCacheSize, objectCacheTTL),
		dcCredCache:   cache.New[string, datacloud.Credentials](dcCredentialCacheSize, dcCredentialCacheTTL),
		dcEntityCache: cache.New[string, []datacloud.EntityBasicInfo](dcEntityCacheSize, dcEntityCacheTTL),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// salesforceService builds the per-request describe orchestrator bound to
// the session's credentials and the shared object cache.
func (s *Server) salesforceService(session sessions.Session) *salesforce.Service {
	return salesforce.NewService(session.AccessToken, session.InstanceURL,
		s.config.GetSalesforceAPIVersion(), s.objectCache)
}

// datacloudService builds the per-request Data Cloud orchestrator sharing
// the credential and entity caches.
func (s *Server) datacloudService(session sessions.Session) *datacloud.Service {
	return datacloud.NewService(session.AccessToken, session.InstanceURL,
		s.dcCredCache, s.dcEntityCache)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	stdlog.Printf("[%-19s] %s\n", displayMethod, path)
}
