package server

import (
	"encoding/json"
	"net/http"

	"github.com/sfviewer/go-schema-server/datacloud"
)

// DataCloudStatusHandler probes whether Data Cloud is usable for the
// session's org. Never errors: a failed probe reports disabled.
func (s *Server) DataCloudStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		enabled := s.datacloudService(session).CheckEnabled(r.Context())
		writeJSON(w, http.StatusOK, DataCloudStatus{DataCloudEnabled: enabled})
	}
}

// EntityListHandler lists Data Cloud entities, optionally filtered by
// entity_type (DataLakeObject or DataModelObject).
func (s *Server) EntityListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		entityType := r.URL.Query().Get("entity_type")
		useCache := r.URL.Query().Get("use_cache") != "false"

		switch entityType {
		case "", datacloud.EntityTypeDataLakeObject, datacloud.EntityTypeDataModelObject:
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "unknown entity_type"})
			return
		}

		entities, err := s.datacloudService(session).ListEntities(r.Context(), entityType, useCache)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, EntityListResponse{Entities: entities, Count: len(entities)})
	}
}

// EntityDescribeHandler returns the full description of one entity.
func (s *Server) EntityDescribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		describe, err := s.datacloudService(session).DescribeEntity(r.Context(), r.PathValue("entity"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, describe)
	}
}

// BatchEntityDescribeHandler describes many entities; per-entity failures
// come back in the errors map.
func (s *Server) BatchEntityDescribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		var req BatchEntityDescribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
			return
		}
		if len(req.EntityNames) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "entity_names must not be empty"})
			return
		}
		if len(req.EntityNames) > maxBatchDescribe {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "too many entities in one request"})
			return
		}

		results, errs, err := s.datacloudService(session).DescribeEntities(r.Context(), req.EntityNames)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, BatchEntityDescribeResponse{Results: results, Errors: errs})
	}
}

// CacheClearHandler drops the shared Data Cloud entity cache.
func (s *Server) CacheClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dcEntityCache.Clear()
		writeJSON(w, http.StatusOK, DetailResponse{Detail: "data cloud cache cleared"})
	}
}
