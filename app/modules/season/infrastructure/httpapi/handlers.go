package seasonhttp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	seasonservice "github.com/Black-And-White-Club/pitwall/app/modules/season/application"
	seasondomain "github.com/Black-And-White-Club/pitwall/app/modules/season/domain"
	seasondb "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories"
	"github.com/Black-And-White-Club/pitwall/app/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	// maxBodyBytes bounds JSON and save-code bodies.
	maxBodyBytes = 1 << 20
	// maxSheetBytes bounds uploaded race sheets.
	maxSheetBytes = 8 << 20

	contentTypeJSON = "application/json"
	contentTypePNG  = "image/png"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SeasonHTTPHandlers serves the season over HTTP.
type SeasonHTTPHandlers struct {
	service seasonservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSeasonHTTPHandlers creates the HTTP handlers.
func NewSeasonHTTPHandlers(service seasonservice.Service, logger *slog.Logger, tracer trace.Tracer) *SeasonHTTPHandlers {
	return &SeasonHTTPHandlers{service: service, logger: logger, tracer: tracer}
}

// RaceRequest is the body of POST /races and PUT /races/{n}.
type RaceRequest struct {
	Kind    string            `json:"kind"`
	Results map[string]string `json:"results"`
	HeldOn  string            `json:"held_on,omitempty"`
}

type violationBody struct {
	Competitor string `json:"competitor"`
	Token      string `json:"token,omitempty"`
	Problem    string `json:"problem"`
}

type errorBody struct {
	Error      string          `json:"error"`
	Violations []violationBody `json:"violations,omitempty"`
}

type archiveRequest struct {
	Label string `json:"label"`
}

// HandleGetStandings serves GET /standings.
func (h *SeasonHTTPHandlers) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.GetStandings")
	defer span.End()

	snap, err := h.service.GetStandings(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(snap.Fingerprint))
	writeJSON(w, http.StatusOK, snap)
}

// HandleRecordRace serves POST /races.
func (h *SeasonHTTPHandlers) HandleRecordRace(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.RecordRace")
	defer span.End()

	var req RaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind, err := seasondomain.ParseEventKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.service.RecordRace(ctx, seasonservice.RecordRaceRequest{
		Kind:   kind,
		Tokens: req.Results,
		HeldOn: req.HeldOn,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleImportRace serves POST /races/import, a multipart upload with a
// "sheet" file plus optional "kind" and "held_on" fields.
func (h *SeasonHTTPHandlers) HandleImportRace(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.ImportRace")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes)
	if err := r.ParseMultipartForm(maxSheetBytes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("sheet")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	kindText := r.FormValue("kind")
	if kindText == "" {
		kindText = string(seasondomain.KindFeature)
	}
	kind, err := seasondomain.ParseEventKind(kindText)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.service.ImportRaceSheet(ctx, header.Filename, data, kind, r.FormValue("held_on"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleCorrectFeature serves PUT /races/{n}.
func (h *SeasonHTTPHandlers) HandleCorrectFeature(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.CorrectFeature")
	defer span.End()

	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, errors.New("race number must be a positive integer"))
		return
	}
	var req RaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.service.CorrectFeature(ctx, n, req.Results)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleUndo serves POST /undo.
func (h *SeasonHTTPHandlers) HandleUndo(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.Undo")
	defer span.End()

	snap, err := h.service.UndoLastEvent(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleReset serves POST /reset.
func (h *SeasonHTTPHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.Reset")
	defer span.End()

	snap, err := h.service.ResetSeason(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleGetSaveCode serves GET /save-code. The body is the raw save code.
func (h *SeasonHTTPHandlers) HandleGetSaveCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.GetSaveCode")
	defer span.End()

	view, err := h.service.SaveCode(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	etag := strconv.Quote(view.Fingerprint)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("X-Race-No", strconv.Itoa(view.RaceNo))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(view.Code)
}

// HandleRestore serves PUT /save-code. The body is a save code.
func (h *SeasonHTTPHandlers) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.Restore")
	defer span.End()

	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	snap, err := h.service.Restore(ctx, blob)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandlePointsChart serves GET /charts/points.png?name=...
func (h *SeasonHTTPHandlers) HandlePointsChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.PointsChart")
	defer span.End()

	png, err := h.service.PointsChart(ctx, chartNames(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeBytes(w, contentTypePNG, "", png)
}

// HandleRatingChart serves GET /charts/rating.png?name=...
func (h *SeasonHTTPHandlers) HandleRatingChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.RatingChart")
	defer span.End()

	png, err := h.service.RatingChart(ctx, chartNames(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeBytes(w, contentTypePNG, "", png)
}

// HandleExportStandings serves GET /standings.xlsx.
func (h *SeasonHTTPHandlers) HandleExportStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.ExportStandings")
	defer span.End()

	book, err := h.service.ExportStandings(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeBytes(w, contentTypeXLSX, "standings.xlsx", book)
}

// HandleListArchives serves GET /archives?limit=n.
func (h *SeasonHTTPHandlers) HandleListArchives(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.ListArchives")
	defer span.End()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	list, err := h.service.ListArchives(ctx, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []seasonservice.ArchiveSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreateArchive serves POST /archives.
func (h *SeasonHTTPHandlers) HandleCreateArchive(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.CreateArchive")
	defer span.End()

	var req archiveRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	summary, err := h.service.Archive(ctx, req.Label)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// HandleRestoreArchive serves POST /archives/{id}/restore.
func (h *SeasonHTTPHandlers) HandleRestoreArchive(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SeasonHTTP.RestoreArchive")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("archive id must be a UUID"))
		return
	}
	snap, err := h.service.RestoreArchived(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// fail maps a service error onto a response. Unclassified errors are logged
// and reported as 500 without detail.
func (h *SeasonHTTPHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *seasondomain.ValidationError
	switch {
	case errors.As(err, &verr):
		body := errorBody{Error: "invalid race result", Violations: make([]violationBody, len(verr.Violations))}
		for i, v := range verr.Violations {
			body.Violations[i] = violationBody{Competitor: v.Competitor, Token: v.Token, Problem: v.Kind.Error()}
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, seasondomain.ErrCorruptLedger),
		errors.Is(err, seasonservice.ErrInvalidSheet),
		errors.Is(err, seasonservice.ErrInvalidRaceDate),
		errors.Is(err, seasonservice.ErrArchiveMismatch):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, seasonservice.ErrUnknownCompetitors):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, seasondomain.ErrNoEvents):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, seasondomain.ErrEventNotFound), errors.Is(err, seasondb.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, seasonservice.ErrArchiveDisabled):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		h.logger.ErrorContext(r.Context(), "Season request failed",
			attr.String("method", r.Method),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		writeError(w, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
	}
}

func chartNames(r *http.Request) []string {
	var names []string
	for _, raw := range r.URL.Query()["name"] {
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	return names
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed JSON body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeBytes(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
