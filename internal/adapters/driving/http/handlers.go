package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/clipper-core/internal/core/domain"

	// registers the OpenAPI document served at /swagger/doc.json
	_ "github.com/custodia-labs/clipper-core/docs"
)

// maxSaveBodyBytes bounds a save request; captured pages carry article text and block lists
const maxSaveBodyBytes = 8 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports dependency health
// @Description Readiness status with per-dependency checks
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// RefreshCollectionsResponse wraps the rebuilt collection index
// @Description Collections reachable through the user's linked workspaces
type RefreshCollectionsResponse struct {
	Items []domain.CollectionSummary `json:"items"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database, Redis and the job queue
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(r.Context()); err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	check("database", s.db)
	check("redis", s.redisClient)
	if s.jobQueue != nil {
		check("queue", s.jobQueue)
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "unavailable", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready", Checks: checks})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// Clip endpoints

// handleSaveClip godoc
// @Summary      Save a captured page
// @Description  Maps the captured page onto the collection's properties, builds page content and creates the page.
// @Description  With options.async the save is queued and a job stub is returned instead.
// @Tags         Clips
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.SaveRequest  true  "Captured page and options"
// @Success      200      {object}  domain.SaveResult
// @Success      202      {object}  domain.EnqueueResult
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Collection not accessible"
// @Failure      502      {object}  ErrorResponse  "Model or destination failure"
// @Router       /clips [post]
func (s *Server) handleSaveClip(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req domain.SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBodyBytes)).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateSaveRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Options.Async {
		if s.jobService == nil {
			writeError(w, http.StatusServiceUnavailable, "async saves are not available")
			return
		}
		result, err := s.jobService.Enqueue(r.Context(), authCtx.UserID, &req)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, result)
		return
	}

	result, err := s.clipService.Save(r.Context(), authCtx.UserID, &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetJob godoc
// @Summary      Get a save job
// @Description  Returns the caller's asynchronous save job
// @Tags         Clips
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  domain.SaveJob
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Job not found"
// @Router       /clips/jobs/{id} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.jobService == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	job, err := s.jobService.GetJob(r.Context(), authCtx.UserID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Collection endpoints

// handleListCollections godoc
// @Summary      List collections
// @Description  Returns the cached collection index. Stale data is served while a refresh runs in the background.
// @Tags         Collections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CollectionIndex
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /collections [get]
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	index, err := s.schemaService.ListCollections(r.Context(), authCtx.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if index.Items == nil {
		index.Items = []domain.CollectionSummary{}
	}

	writeJSON(w, http.StatusOK, index)
}

// handleRefreshCollections godoc
// @Summary      Refresh collections
// @Description  Rebuilds the collection index across every linked workspace
// @Tags         Collections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RefreshCollectionsResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /collections/refresh [post]
func (s *Server) handleRefreshCollections(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := s.schemaService.RefreshCollections(r.Context(), authCtx.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.CollectionSummary{}
	}

	writeJSON(w, http.StatusOK, RefreshCollectionsResponse{Items: items})
}

// handleGetSchema godoc
// @Summary      Get collection schema
// @Description  Returns the cached schema. A version matching If-None-Match (or ?version=) yields 304.
// @Tags         Collections
// @Produce      json
// @Security     BearerAuth
// @Param        id             path      string  true   "Collection ID"
// @Param        shape          query     string  false  "simplified (default) or raw"
// @Param        version        query     string  false  "Cached version held by the caller"
// @Param        If-None-Match  header    string  false  "Cached version held by the caller"
// @Success      200  {object}  domain.SchemaResult
// @Success      304  "Schema unchanged"
// @Failure      400  {object}  ErrorResponse  "Invalid shape"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Collection not accessible"
// @Router       /collections/{id}/schema [get]
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shape := domain.SchemaShape(r.URL.Query().Get("shape"))
	switch shape {
	case "":
		shape = domain.SchemaShapeSimplified
	case domain.SchemaShapeSimplified, domain.SchemaShapeRaw:
	default:
		writeError(w, http.StatusBadRequest, "shape must be simplified or raw")
		return
	}

	ifVersion := parseETag(r.Header.Get("If-None-Match"))
	if ifVersion == "" {
		ifVersion = r.URL.Query().Get("version")
	}

	result, err := s.schemaService.GetSchema(r.Context(), authCtx.UserID, r.PathValue("id"), shape, ifVersion)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if result.Version != "" {
		w.Header().Set("ETag", `"`+result.Version+`"`)
	}
	if result.NotModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parseETag strips the weak prefix and quotes from an entity tag
func parseETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}

// Helpers

// writeServiceError maps domain errors onto status codes
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotAccessible), errors.Is(err, domain.ErrNoCredentials):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, domain.ErrModelOutputInvalid), errors.Is(err, domain.ErrDestinationWrite):
		s.logger.Warn("upstream failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
