package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.RootHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET /health", ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// CORS preflight never reaches method-qualified patterns, so it gets its
	// own catch-all; CorsMiddleware answers it.
	s.RegisterRouteFunc("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// AUTH
	s.RegisterRouteFunc("GET /auth/login", ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET /auth/callback", ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET /auth/status", ChainMiddleware(s.AuthStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /auth/logout", ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /auth/refresh", ChainMiddleware(s.RefreshHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET /auth/session-info", ChainMiddleware(s.SessionInfoHandler(), s.SessionMiddleware()...))

	// Schema API (requires an authenticated session)
	s.RegisterRouteFunc("GET /api/objects", ChainMiddleware(s.ObjectListHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET /api/objects/{object}/describe", ChainMiddleware(s.ObjectDescribeHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("POST /api/objects/describe", ChainMiddleware(s.BatchDescribeHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET /api/versions", ChainMiddleware(s.VersionsHandler(), s.SessionMiddleware()...))

	// Data Cloud API
	s.RegisterRouteFunc("GET /api/datacloud/status", ChainMiddleware(s.DataCloudStatusHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET /api/datacloud/entities", ChainMiddleware(s.EntityListHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("GET /api/datacloud/entities/{entity}/describe", ChainMiddleware(s.EntityDescribeHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("POST /api/datacloud/entities/describe", ChainMiddleware(s.BatchEntityDescribeHandler(), s.SessionMiddleware()...))
	s.RegisterRouteFunc("POST /api/datacloud/cache/clear", ChainMiddleware(s.CacheClearHandler(), s.SessionMiddleware()...))
}
