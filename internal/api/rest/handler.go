package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iotsignals/passage-api/internal/domain"
	"github.com/iotsignals/passage-api/internal/export"
	"github.com/iotsignals/passage-api/internal/ingest"
	"github.com/iotsignals/passage-api/internal/logger"
	"github.com/iotsignals/passage-api/internal/store"
)

// Handler contains the REST API handlers
type Handler struct {
	ingestor *ingest.Ingestor
	store    store.Store
}

// NewHandler creates a new REST handler
func NewHandler(ingestor *ingest.Ingestor, s store.Store) Handler {
	return Handler{ingestor: ingestor, store: s}
}

// HealthCheck handles GET /health
func (h Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// CreatePassage handles POST /v0/milieuzone/passage/. The camera middleware
// sends camelCase keys; they are normalized to snake_case before decoding.
func (h Handler) CreatePassage(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondBadRequest(c, "Invalid JSON body", err.Error())
		return
	}

	normalized := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		normalized[toSnakeCase(key)] = value
	}

	payload, err := json.Marshal(normalized)
	if err != nil {
		respondInternalError(c, err, "Failed to process request body")
		return
	}

	var record ingest.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		respondBadRequest(c, "Invalid passage payload", err.Error())
		return
	}

	stored, err := h.ingestor.Ingest(c.Request.Context(), &record)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			respondValidationError(c, err.Error())
		case errors.Is(err, domain.ErrDuplicatePassage):
			respondDuplicateID(c)
		default:
			respondInternalError(c, err, "Failed to store passage")
		}
		return
	}

	c.JSON(http.StatusCreated, stored)
}

// ExportTaxi handles GET /v0/milieuzone/passage/export-taxi/
func (h Handler) ExportTaxi(c *gin.Context) {
	rows, err := h.store.TaxiExportRows(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to query taxi export")
		return
	}

	h.streamCSV(c, rows)
}

// Export handles GET /v0/milieuzone/passage/export/. It accepts optional
// year and week query parameters; without them it exports the previous
// ISO week by date bounds, so year boundaries are handled correctly.
func (h Handler) Export(c *gin.Context) {
	filter, err := exportFilterFromQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	rows, err := h.store.CameraHourExportRows(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "Failed to query export")
		return
	}

	h.streamCSV(c, rows)
}

func (h Handler) streamCSV(c *gin.Context, rows export.RowIterator) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="export.csv"`)
	c.Status(http.StatusOK)

	written, err := export.StreamCSV(c.Writer, rows)
	if err != nil {
		// Headers are already sent; all we can do is log and cut the stream.
		logger.ErrorCtx(c.Request.Context(), err, zap.Int("rows_written", written))
		c.Abort()
		return
	}

	logger.DebugCtx(c.Request.Context(), "export streamed", zap.Int("rows", written))
}

func exportFilterFromQuery(c *gin.Context) (store.ExportFilter, error) {
	var filter store.ExportFilter

	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid year %q", raw)
		}
		filter.Year = &year
	}
	if raw := c.Query("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid week %q", raw)
		}
		filter.Week = &week
	}

	// Default to the previous calendar week
	if filter.Year == nil && filter.Week == nil {
		monday, sunday := previousWeek(time.Now().UTC())
		filter.From = &monday
		filter.To = &sunday
	}

	return filter, nil
}

// previousWeek returns the Monday and Sunday of the week before the one
// containing now.
func previousWeek(now time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday-7)
	return monday, monday.AddDate(0, 0, 6)
}
