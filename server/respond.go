package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	interr "github.com/sfviewer/go-schema-server/internal/errors"
)

// errorResponse is the uniform error body: {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// writeError maps service errors onto the HTTP contract. Vendor failures
// surface as 502 with the (truncated) vendor message; anything unclassified
// is a 500 with a generic body, the detail stays in the log.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case interr.Is(err, interr.ErrSessionNotFound),
		interr.Is(err, interr.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "not authenticated"})

	case interr.Is(err, interr.ErrNoRefreshToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "no refresh token for this session"})

	case interr.Is(err, interr.ErrRefreshTokenExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "refresh token rejected, please log in again"})

	case interr.Is(err, interr.ErrInvalidOAuthState):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid or expired login state"})

	case interr.Is(err, interr.ErrObjectNotFound),
		interr.Is(err, interr.ErrEntityNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: interr.TruncateMessage(err.Error())})

	case interr.Is(err, interr.ErrDataCloudDisabled):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "data cloud is not enabled for this org"})

	case interr.Is(err, interr.ErrDataCloudCredentials):
		log.Err(err).Msg("data cloud credential exchange failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: "data cloud credential exchange failed"})

	case interr.Is(err, interr.ErrVendorAPI):
		log.Err(err).Msg("vendor api error")
		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: interr.TruncateMessage(err.Error())})

	default:
		log.Err(err).Msg("unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}
