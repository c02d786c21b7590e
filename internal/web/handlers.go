package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/AssetViewer/internal/core"
	"github.com/JonMunkholm/AssetViewer/internal/logging"
	"github.com/JonMunkholm/AssetViewer/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleIndex renders the asset grid. An optional ?q= narrows the rows.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.ListAssets(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	filtered := filterAssets(rows, query)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(filtered, len(rows), query).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render asset grid", "error", err)
	}
}

// handleAssetPage renders the detail page of one asset.
func (s *Server) handleAssetPage(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	detail, err := s.service.AssetDetail(r.Context(), assetID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.AssetPage(detail).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render asset page", "asset_id", assetID, "error", err)
	}
}

// handleListAssets returns every asset grid row as JSON, ordered by id.
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	rows, err := s.service.ListAssets(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, filterAssets(rows, strings.TrimSpace(r.URL.Query().Get("q"))))
}

// handleAssetDetail returns the detail of one asset as JSON, or 404.
func (s *Server) handleAssetDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.AssetDetail(r.Context(), chi.URLParam(r, "assetID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, detail)
}

// HealthResponse reports whether the snapshot is loaded. It never triggers a
// load.
type HealthResponse struct {
	Status     string            `json:"status"`
	Loaded     bool              `json:"loaded"`
	LoadedAt   *time.Time        `json:"loaded_at,omitempty"`
	SnapshotID string            `json:"snapshot_id,omitempty"`
	Assets     int               `json:"assets"`
	Tables     *core.TableCounts `json:"tables,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}

	if loaded, at := s.service.Loaded(); loaded {
		snap, err := s.service.Snapshot(r.Context())
		if err == nil {
			counts := snap.Counts()
			resp.Loaded = true
			resp.LoadedAt = &at
			resp.SnapshotID = snap.Meta().ID
			resp.Assets = snap.Len()
			resp.Tables = &counts
		}
	}

	writeJSON(w, resp)
}

// filterAssets keeps rows where any displayed column contains query,
// case-insensitively. An empty query keeps everything.
func filterAssets(rows []core.AssetSummary, query string) []core.AssetSummary {
	if query == "" {
		return rows
	}
	needle := strings.ToLower(query)

	out := make([]core.AssetSummary, 0)
	for _, a := range rows {
		for _, v := range []string{a.ID, a.Name, a.Category, a.Brand, a.Model, a.Customer, a.Location} {
			if strings.Contains(strings.ToLower(v), needle) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
