// Package api serves the licence map over HTTP: filtered records, facet
// options, clustered GeoJSON markers and nearest-operator search.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/rrf-map/internal/cluster"
	"github.com/sells-group/rrf-map/internal/facet"
	"github.com/sells-group/rrf-map/internal/model"
	"github.com/sells-group/rrf-map/internal/monitoring"
	"github.com/sells-group/rrf-map/internal/proximity"
	"github.com/sells-group/rrf-map/internal/view"
	"github.com/sells-group/rrf-map/pkg/geocode"
)

// Handler answers map queries. The record set is swapped wholesale by
// SetRecords; every request recomputes its view from its own filter state.
type Handler struct {
	engine       *facet.Engine
	opts         view.Options
	proximity    proximity.Config
	geocoder     geocode.Geocoder
	suggestLimit int
	metrics      *monitoring.Metrics

	mu      sync.RWMutex
	records []*model.Record
}

// HandlerConfig holds the Handler's collaborators. Geocoder and Metrics
// may be nil.
type HandlerConfig struct {
	Engine       *facet.Engine
	Options      view.Options
	Proximity    proximity.Config
	Geocoder     geocode.Geocoder
	SuggestLimit int
	Metrics      *monitoring.Metrics
}

// NewHandler creates a Handler over records.
func NewHandler(cfg HandlerConfig, records []model.Record) *Handler {
	h := &Handler{
		engine:       cfg.Engine,
		opts:         cfg.Options,
		proximity:    cfg.Proximity,
		geocoder:     cfg.Geocoder,
		suggestLimit: cfg.SuggestLimit,
		metrics:      cfg.Metrics,
	}
	if h.suggestLimit < 1 {
		h.suggestLimit = geocode.DefaultSuggestLimit
	}
	if len(h.proximity.Primary) == 0 {
		h.proximity = proximity.DefaultConfig()
	}
	h.SetRecords(records)
	return h
}

// SetRecords replaces the served record set.
func (h *Handler) SetRecords(records []model.Record) {
	ptrs := make([]*model.Record, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	h.mu.Lock()
	h.records = ptrs
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.RecordsLoaded.Set(float64(len(ptrs)))
	}
}

func (h *Handler) snapshot() []*model.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.records
}

// compute parses the request's filter state and derives its view. It
// writes a 400 and returns nil on bad input.
func (h *Handler) compute(w http.ResponseWriter, r *http.Request) (*view.Snapshot, []*model.Record) {
	st, err := parseState(r.URL.Query(), h.engine)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil
	}
	all := h.snapshot()
	return view.Compute(all, h.engine, st, h.opts), all
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": len(h.snapshot()),
	})
}

type recordsResponse struct {
	Total        int             `json:"total"`
	BaseFiltered int             `json:"base_filtered"`
	Matched      int             `json:"matched"`
	Records      []*model.Record `json:"records"`
}

func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	snap, all := h.compute(w, r)
	if snap == nil {
		return
	}
	records := snap.Filtered
	if records == nil {
		records = []*model.Record{}
	}
	writeJSON(w, http.StatusOK, recordsResponse{
		Total:        len(all),
		BaseFiltered: len(snap.BaseFiltered),
		Matched:      len(snap.Filtered),
		Records:      records,
	})
}

type facetsResponse struct {
	Carriers []facet.Option `json:"carriers"`
	Bands    []facet.Option `json:"bands"`
	Matched  int            `json:"matched"`
}

func (h *Handler) handleFacets(w http.ResponseWriter, r *http.Request) {
	snap, _ := h.compute(w, r)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, facetsResponse{
		Carriers: snap.CarrierOptions,
		Bands:    snap.BandOptions,
		Matched:  len(snap.Filtered),
	})
}

// handleClusters returns clustered markers as GeoJSON. With
// ?layout=offset it returns the fanned-out per-carrier markers instead.
func (h *Handler) handleClusters(w http.ResponseWriter, r *http.Request) {
	snap, _ := h.compute(w, r)
	if snap == nil {
		return
	}

	var body any
	switch layout := r.URL.Query().Get("layout"); layout {
	case "", "cluster":
		body = cluster.FeatureCollection(snap.Clusters)
	case "offset":
		body = cluster.PlacementCollection(snap.Placements)
	default:
		writeError(w, http.StatusBadRequest, "layout must be cluster or offset")
		return
	}

	b, err := json.Marshal(body)
	if err != nil {
		zap.L().Error("api: encode geojson", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to encode geojson")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.RecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	snap, _ := h.compute(w, r)
	if snap == nil {
		return
	}
	if limit < 1 {
		limit = view.DefaultRecentLimit
	}
	recent := view.Recent(snap.Filtered, limit)
	writeJSON(w, http.StatusOK, map[string]any{"records": recent})
}

func (h *Handler) handleDistricts(w http.ResponseWriter, _ *http.Request) {
	districts := view.Districts(h.snapshot())
	if districts == nil {
		districts = []view.District{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"districts": districts})
}

type nearestResponse struct {
	Query string `json:"query,omitempty"`
	Place string `json:"place,omitempty"`
	proximity.Result
}

// handleNearest resolves the query point from lat/lon or a free-text q and
// ranks the filtered records around it.
func (h *Handler) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := nearestResponse{Query: q.Get("q")}

	lat, lon, ok, err := parsePoint(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		if resp.Query == "" {
			writeError(w, http.StatusBadRequest, "provide q or lat and lon")
			return
		}
		if h.geocoder == nil {
			if lat, lon, ok = geocode.ParseLatLon(resp.Query); !ok {
				writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
				return
			}
		} else {
			place, err := geocode.Resolve(r.Context(), h.geocoder, resp.Query)
			if err != nil {
				zap.L().Warn("api: geocode failed", zap.String("q", resp.Query), zap.Error(err))
				writeError(w, http.StatusBadGateway, "unable to reach search service")
				return
			}
			if place == nil {
				writeError(w, http.StatusNotFound, "no place matched the query")
				return
			}
			lat, lon, resp.Place = place.Lat, place.Lon, place.DisplayName
		}
	}

	snap, _ := h.compute(w, r)
	if snap == nil {
		return
	}
	resp.Result = proximity.Nearest(lat, lon, snap.Filtered, h.proximity)
	if resp.Lines == nil {
		resp.Lines = []proximity.Line{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if h.geocoder == nil {
		writeJSON(w, http.StatusOK, map[string]any{"places": []geocode.Place{}})
		return
	}
	places, err := geocode.Suggest(r.Context(), h.geocoder, r.URL.Query().Get("q"), h.suggestLimit)
	if err != nil {
		// A superseded type-ahead request is canceled by the client; only
		// log real upstream failures.
		if r.Context().Err() == nil {
			zap.L().Warn("api: suggest failed", zap.Error(err))
		}
		writeError(w, http.StatusBadGateway, "unable to reach search service")
		return
	}
	if places == nil {
		places = []geocode.Place{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": places})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
