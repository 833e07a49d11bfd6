package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"iceberg-lens/catalog"
	"iceberg-lens/stats"
)

// TableStatsResponse describes a table's current snapshot. The counters are
// present only when Available is true.
type TableStatsResponse struct {
	Namespace    string            `json:"namespace"`
	Table        string            `json:"table"`
	SnapshotID   *int64            `json:"snapshot-id"`
	ManifestList string            `json:"manifest-list,omitempty"`
	Available    bool              `json:"available"`
	Summary      map[string]string `json:"summary,omitempty"`

	*stats.TableStats
}

type namespacesResponse struct {
	Namespaces []string `json:"namespaces"`
}

type tablesResponse struct {
	Namespace string   `json:"namespace"`
	Tables    []string `json:"tables"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := s.catalog.ListNamespaces(r.Context())
	if err != nil {
		s.catalogError(w, r, err)
		return
	}

	resp := namespacesResponse{Namespaces: make([]string, 0, len(namespaces))}
	for _, ns := range namespaces {
		resp.Namespaces = append(resp.Namespaces, strings.Join(ns, "."))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	identifiers, err := s.catalog.ListTables(r.Context(), namespace)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}

	resp := tablesResponse{Namespace: namespace, Tables: make([]string, 0, len(identifiers))}
	for _, id := range identifiers {
		resp.Tables = append(resp.Tables, id.Name)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTableStats(w http.ResponseWriter, r *http.Request) {
	namespace, table := r.PathValue("namespace"), r.PathValue("table")

	loaded, err := s.catalog.LoadTable(r.Context(), namespace, table)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}

	resp := TableStatsResponse{Namespace: namespace, Table: table}
	snap := loaded.Metadata.CurrentSnapshot()
	if snap == nil {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.SnapshotID = &snap.SnapshotID
	resp.ManifestList = snap.ManifestList
	resp.Summary = snap.Summary

	if ts, ok := s.stats.TableStats(r.Context(), snap.ManifestList, loaded.Config); ok {
		resp.Available = true
		resp.TableStats = &ts
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// catalogError maps catalog failures onto the response. A missing resource
// stays a 404; everything else is a bad gateway.
func (s *Server) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		status = http.StatusNotFound
	}
	s.logger.Warn("catalog request failed", "path", r.URL.Path, "status", status, "error", err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", "error", err)
	}
}
