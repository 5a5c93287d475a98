package main

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/skynet2/spending-dashboard/pkg/common"
	"github.com/skynet2/spending-dashboard/pkg/database"
	"github.com/skynet2/spending-dashboard/pkg/printer"
	"github.com/skynet2/spending-dashboard/pkg/reimbursement"
)

const maxUploadSize = 32 << 20

type Handler struct {
	app     Dashboard
	apiKey  string
	printer *printer.Printer
}

func NewHandler(
	app Dashboard,
	apiKey string,
) *Handler {
	return &Handler{
		app:     app,
		apiKey:  apiKey,
		printer: printer.NewPrinter(),
	}
}

func (h *Handler) Router(logger zerolog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("url", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(h.authorize)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/sessions", h.listSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions", h.importFile).Methods(http.MethodPost)
	api.HandleFunc("/sessions/clean", h.cleanSessions).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.getSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.renameSession).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{id}", h.deleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/switch", h.switchSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/duplicate", h.duplicateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/duplicates", h.sessionDuplicates).Methods(http.MethodGet)

	api.HandleFunc("/filters", h.getFilters).Methods(http.MethodGet)
	api.HandleFunc("/filters", h.putFilters).Methods(http.MethodPut)
	api.HandleFunc("/filters/compensation-rules", h.addCompensationRule).Methods(http.MethodPost)
	api.HandleFunc("/filters/compensation-rules/{index:[0-9]+}", h.removeCompensationRule).Methods(http.MethodDelete)

	api.HandleFunc("/people", h.listPeople).Methods(http.MethodGet)
	api.HandleFunc("/people", h.addPerson).Methods(http.MethodPost)
	api.HandleFunc("/people/{id}", h.updatePerson).Methods(http.MethodPatch)
	api.HandleFunc("/people/{id}", h.deletePerson).Methods(http.MethodDelete)

	api.HandleFunc("/reimbursements", h.listReimbursements).Methods(http.MethodGet)
	api.HandleFunc("/reimbursements", h.associate).Methods(http.MethodPost)
	api.HandleFunc("/reimbursements/summary", h.summary).Methods(http.MethodGet)
	api.HandleFunc("/reimbursements/{id}/reimbursed", h.markReimbursed).Methods(http.MethodPut)
	api.HandleFunc("/reimbursements/{id}", h.removeAssociation).Methods(http.MethodDelete)

	api.HandleFunc("/overview", h.overview).Methods(http.MethodGet)
	api.HandleFunc("/tracking", h.tracking).Methods(http.MethodGet)
	api.HandleFunc("/reset", h.reset).Methods(http.MethodPost)

	return r
}

func (h *Handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey != "" &&
			h.apiKey != r.URL.Query().Get("api_key") &&
			h.apiKey != r.Header.Get("X-Api-Key") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	writeJSON(w, http.StatusOK, SessionsResponse{
		ActiveSessionID:   h.app.Sessions().ActiveSessionID(ctx),
		NextSessionNumber: h.app.Sessions().NextSessionNumber(ctx),
		Sessions:          h.app.Sessions().SessionsByRecency(ctx),
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.app.Sessions().Session(r.Context(), mux.Vars(r)["id"])
	if !ok {
		writeError(w, r, common.ErrSessionNotFound)
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// importFile accepts either a multipart upload in the "file" field or the raw
// file body with its name in the file_name query parameter.
func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, result, err := h.app.ImportFile(r.Context(), fileName, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImportResponse{
		SessionID: id,
		Summary:   h.printer.Import(result),
		Result:    result,
	})
}

func readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return "", nil, errors.Wrap(common.ErrEmptyFile, err.Error())
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.Wrap(common.ErrEmptyFile, err.Error())
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, errors.WithStack(err)
		}

		return header.Filename, data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
	if err != nil {
		return "", nil, errors.WithStack(err)
	}

	fileName := r.URL.Query().Get("file_name")
	if fileName == "" {
		fileName = "upload.csv"
	}

	return fileName, data, nil
}

func (h *Handler) renameSession(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !readJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, common.ErrInvalidName)
		return
	}

	if !h.app.Sessions().RenameSession(r.Context(), mux.Vars(r)["id"], req.Name) {
		writeError(w, r, common.ErrSessionNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.app.Sessions().DeleteSession(r.Context(), mux.Vars(r)["id"]) {
		writeError(w, r, common.ErrSessionNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) switchSession(w http.ResponseWriter, r *http.Request) {
	if !h.app.Sessions().SwitchToSession(r.Context(), mux.Vars(r)["id"]) {
		writeError(w, r, common.ErrSessionNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.app.Sessions().DuplicateSession(r.Context(), mux.Vars(r)["id"])
	if !ok {
		writeError(w, r, common.ErrSessionNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *Handler) sessionDuplicates(w http.ResponseWriter, r *http.Request) {
	duplicates, err := h.app.Duplicates(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, duplicates)
}

func (h *Handler) cleanSessions(w http.ResponseWriter, r *http.Request) {
	var req CleanRequest
	if !readJSON(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, CleanResponse{
		Removed: h.app.Sessions().CleanOldSessions(r.Context(), req.MaxAgeDays),
	})
}

func (h *Handler) getFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Filters().Filters())
}

func (h *Handler) putFilters(w http.ResponseWriter, r *http.Request) {
	req := database.DefaultFilters()
	if !readJSON(w, r, &req) {
		return
	}

	h.app.Filters().Replace(req)

	writeJSON(w, http.StatusOK, h.app.Filters().Filters())
}

func (h *Handler) addCompensationRule(w http.ResponseWriter, r *http.Request) {
	var req database.CompensationRule
	if !readJSON(w, r, &req) {
		return
	}

	if err := h.app.Filters().AddCompensationRule(req); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.app.Filters().Filters())
}

func (h *Handler) removeCompensationRule(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.Atoi(mux.Vars(r)["index"])

	if !h.app.Filters().RemoveCompensationRule(index) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPeople(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Ledger().People(r.Context()))
}

func (h *Handler) addPerson(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if !readJSON(w, r, &req) {
		return
	}

	person, err := h.app.Ledger().AddPerson(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, person)
}

func (h *Handler) updatePerson(w http.ResponseWriter, r *http.Request) {
	var req reimbursement.PersonUpdate
	if !readJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	id := mux.Vars(r)["id"]

	if _, ok := h.app.Ledger().Person(ctx, id); !ok {
		writeError(w, r, common.ErrPersonNotFound)
		return
	}

	if !h.app.Ledger().UpdatePerson(ctx, id, req) {
		writeError(w, r, common.ErrInvalidName)
		return
	}

	person, _ := h.app.Ledger().Person(ctx, id)
	writeJSON(w, http.StatusOK, person)
}

func (h *Handler) deletePerson(w http.ResponseWriter, r *http.Request) {
	if !h.app.Ledger().DeletePerson(r.Context(), mux.Vars(r)["id"]) {
		writeError(w, r, common.ErrPersonNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listReimbursements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if personID := r.URL.Query().Get("person_id"); personID != "" {
		writeJSON(w, http.StatusOK, h.app.Ledger().PersonTransactions(ctx, personID))
		return
	}

	writeJSON(w, http.StatusOK, h.app.Ledger().Transactions(ctx))
}

func (h *Handler) associate(w http.ResponseWriter, r *http.Request) {
	var req AssociateRequest
	if !readJSON(w, r, &req) {
		return
	}

	record, err := h.app.AssociateTransaction(r.Context(), req.Transaction, req.PersonID, req.Amount, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) markReimbursed(w http.ResponseWriter, r *http.Request) {
	var req ReimbursedRequest
	if !readJSON(w, r, &req) {
		return
	}

	reimbursed := true
	if req.Reimbursed != nil {
		reimbursed = *req.Reimbursed
	}

	if !h.app.Ledger().MarkAsReimbursed(r.Context(), mux.Vars(r)["id"], reimbursed) {
		writeError(w, r, common.ErrRecordNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeAssociation(w http.ResponseWriter, r *http.Request) {
	if !h.app.Ledger().RemoveAssociation(r.Context(), mux.Vars(r)["id"]) {
		writeError(w, r, common.ErrRecordNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Ledger().Summary(r.Context()))
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.app.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) tracking(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IDResponse{ID: h.app.TrackingID()})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.app.ResetAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func readJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, errors.WithStack(err))
		return false
	}

	if err = json.Unmarshal(b, target); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(value)
}

func statusFor(err error) int {
	switch {
	case errors.IsAny(err, common.ErrSessionNotFound, common.ErrPersonNotFound, common.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrTransactionAlreadyAssociated):
		return http.StatusConflict
	case errors.IsAny(err,
		common.ErrInvalidName,
		common.ErrInvalidAmount,
		common.ErrEmptyFile,
		common.ErrNoTransactions,
		common.ErrMissingColumns,
		common.ErrUnsupportedFormat,
	):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Err(err).Msg("request failed")
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
