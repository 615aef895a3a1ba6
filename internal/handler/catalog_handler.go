package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bulkmart/internal/catalog"
	"bulkmart/internal/model"
	"bulkmart/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CatalogHandler handles catalogue and homepage HTTP requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger

	// heartbeat is the keep-alive interval of the content stream.
	heartbeat time.Duration
}

// NewCatalogHandler creates a new catalogue handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:   service,
		logger:    logger.With().Str("handler", "catalog").Logger(),
		heartbeat: 25 * time.Second,
	}
}

// ListProducts handles GET /api/products requests with keyset pagination.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if limitStr := q.Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidField, "invalid limit parameter", h.logger)
			return
		}
	}

	page, err := h.service.ListPage(r.Context(), catalog.Cursor(q.Get("cursor")), limit, catalog.ParseSortKey(q.Get("sort")))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetBySlug handles GET /api/products/{slug} requests.
func (h *CatalogHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.ProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Featured handles GET /api/featured requests.
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Featured(r.Context()))
}

// Categories handles GET /api/categories requests. ?all=true includes
// inactive categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	writeJSON(w, http.StatusOK, h.service.Categories(r.Context(), !all))
}

// HomeContent handles GET /api/content/home requests.
func (h *CatalogHandler) HomeContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.HomeContent(r.Context()))
}

// ContentStream handles GET /api/content/stream. It sends the homepage content
// as server-sent events, once on connect and again whenever it is reloaded.
// The stream ends when the client goes away or the content hub is closed.
func (h *CatalogHandler) ContentStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "streaming unsupported", h.logger)
		return
	}

	// Loads the content if nothing has been published yet.
	h.service.HomeContent(r.Context())

	updates := make(chan model.HomeContent, 1)
	sub := h.service.SubscribeContent(func(hc model.HomeContent) {
		// Only the latest content matters to a slow reader.
		select {
		case <-updates:
		default:
		}
		updates <- hc
	})
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			return
		case hc := <-updates:
			data, err := json.Marshal(hc)
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to encode home content event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: content\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Feed handles GET /api/catalog/feed requests.
func (h *CatalogHandler) Feed(w http.ResponseWriter, r *http.Request) {
	h.feed(w, r, h.service.FeedView)
}

// FeedMore handles POST /api/catalog/feed/more requests.
func (h *CatalogHandler) FeedMore(w http.ResponseWriter, r *http.Request) {
	h.feed(w, r, h.service.FeedLoadMore)
}

// FeedReset handles POST /api/catalog/feed/reset requests.
func (h *CatalogHandler) FeedReset(w http.ResponseWriter, r *http.Request) {
	h.feed(w, r, h.service.FeedReset)
}

type feedFunc func(ctx context.Context, sessionID string, q service.FeedQuery) (*service.FeedView, error)

func (h *CatalogHandler) feed(w http.ResponseWriter, r *http.Request, fn feedFunc) {
	q, err := parseFeedQuery(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := fn(r.Context(), sessionID(r), q)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// parseFeedQuery reads sort and filters from the query string. List filters
// may be repeated or comma separated.
func parseFeedQuery(r *http.Request) (service.FeedQuery, error) {
	q := r.URL.Query()
	fq := service.FeedQuery{
		Sort: catalog.ParseSortKey(q.Get("sort")),
		Filters: catalog.Filters{
			Brands:     listParam(q["brand"]),
			Conditions: listParam(q["condition"]),
			Materials:  listParam(q["material"]),
			CategoryID: strings.TrimSpace(q.Get("category")),
		},
	}

	var err error
	if fq.Filters.MinPrice, err = priceParam(q.Get("minPrice"), "minPrice"); err != nil {
		return fq, err
	}
	if fq.Filters.MaxPrice, err = priceParam(q.Get("maxPrice"), "maxPrice"); err != nil {
		return fq, err
	}
	return fq, nil
}

func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func priceParam(value, name string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return nil, model.NewDomainError(model.ErrCodeInvalidField, "invalid "+name+" parameter")
	}
	return &d, nil
}
