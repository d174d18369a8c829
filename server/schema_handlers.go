package server

import (
	"encoding/json"
	"net/http"
)

// maxBatchDescribe caps one batch-describe request. Large requests still
// batch internally; the cap only bounds a single HTTP call.
const maxBatchDescribe = 100

// ObjectListHandler returns the org's sObject list. use_cache=false forces
// a vendor refresh.
func (s *Server) ObjectListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		useCache := r.URL.Query().Get("use_cache") != "false"

		objects, err := s.salesforceService(session).ListObjects(r.Context(), useCache)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ObjectListResponse{Objects: objects, Count: len(objects)})
	}
}

// ObjectDescribeHandler returns the full schema of one sObject.
func (s *Server) ObjectDescribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		describe, err := s.salesforceService(session).DescribeObject(r.Context(), r.PathValue("object"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, describe)
	}
}

// BatchDescribeHandler describes many sObjects in one call. Per-object
// failures come back in the errors map, not as a failed request.
func (s *Server) BatchDescribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		var req BatchDescribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
			return
		}
		if len(req.ObjectNames) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "object_names must not be empty"})
			return
		}
		if len(req.ObjectNames) > maxBatchDescribe {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "too many objects in one request"})
			return
		}

		results, errs, err := s.salesforceService(session).DescribeObjects(r.Context(), req.ObjectNames)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, BatchDescribeResponse{Results: results, Errors: errs})
	}
}

// VersionsHandler lists the org's supported API versions, newest first.
func (s *Server) VersionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())

		versions, err := s.salesforceService(session).AvailableVersions(r.Context(), 0)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, VersionsResponse{
			Versions: versions,
			Current:  s.config.GetSalesforceAPIVersion(),
		})
	}
}
