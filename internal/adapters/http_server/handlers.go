// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/app"
	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

type Handlers struct {
	Catalog      *app.CatalogService
	Booking      *app.BookingService
	Availability *app.AvailabilityService

	// SubmitRPS throttles POST /v1/reservations per client IP. Zero
	// disables the limiter (tests).
	SubmitRPS float64
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/resources", h.listResources)
	s.mux.Get("/v1/resources/{id}", h.getResource)
	s.mux.Put("/v1/resources/{id}/maintenance", h.setMaintenance)
	s.mux.Get("/v1/resources/{id}/availability", h.availability)

	if h.SubmitRPS > 0 {
		s.mux.With(RateLimit(h.SubmitRPS, int(h.SubmitRPS)+1)).Post("/v1/reservations", h.submitReservation)
	} else {
		s.mux.Post("/v1/reservations", h.submitReservation)
	}
	s.mux.Get("/v1/reservations", h.listReservations)
	s.mux.Get("/v1/reservations/{id}", h.getReservation)
	s.mux.Post("/v1/reservations/{id}/payment-proof", h.attachPaymentProof)
	s.mux.Post("/v1/reservations/{id}/transition", h.transitionReservation)
	s.mux.Post("/v1/reservations/{id}/cancel", h.cancelReservation)
}

func writeProblem(w http.ResponseWriter, status int, slug, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: slug, Title: http.StatusText(status), Status: status, Detail: detail}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainErr maps the typed failure set onto HTTP statuses and stable
// problem slugs. ErrBusy additionally carries a Retry-After hint.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		writeProblem(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, domain.ErrUnknownCategory):
		writeProblem(w, http.StatusBadRequest, "unknown_category", err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeProblem(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrResourceUnavailable):
		writeProblem(w, http.StatusConflict, "resource_unavailable", err.Error())
	case errors.Is(err, domain.ErrPaymentRequired):
		writeProblem(w, http.StatusPaymentRequired, "payment_required", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeProblem(w, http.StatusServiceUnavailable, "busy", "resource is busy, retry shortly")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive number")
	}
	return id, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, domain.ErrInvalidRange
	}
	return domain.Day(t), nil
}

var errNegativeGuests = errors.New("guest counts must be non-negative")

// parseGuests rejects bucket names outside the fixed pricing-tier set.
func parseGuests(in map[string]int) (domain.GuestCounts, error) {
	var g domain.GuestCounts
	for k, n := range in {
		if n < 0 {
			return g, errNegativeGuests
		}
		switch domain.GuestCategory(k) {
		case domain.GuestAdult:
			g.Adult = n
		case domain.GuestChild:
			g.Child = n
		case domain.GuestSenior:
			g.Senior = n
		case domain.GuestPWD:
			g.PWD = n
		default:
			return g, domain.ErrUnknownCategory
		}
	}
	return g, nil
}

// ---- Resources ----

func (h *Handlers) listResources(w http.ResponseWriter, r *http.Request) {
	out, err := h.Catalog.ListResources(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": out})
}

func (h *Handlers) getResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	res, err := h.Catalog.GetResource(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeCached(w, r, res)
}

func (h *Handlers) setMaintenance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	var body struct {
		On bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "body must be JSON with an \"on\" flag")
		return
	}
	res, err := h.Catalog.SetMaintenance(r.Context(), id, body.On)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// availability serves a month calendar by default, or an arbitrary window
// when from/to are given.
func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	q := r.URL.Query()
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		start, err := parseDate(from)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		end, err := parseDate(to)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		rng, err := domain.NewRange(start, end)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		snaps, err := h.Availability.Range(r.Context(), id, rng)
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		writeCached(w, r, map[string]any{"resource_id": id, "days": snaps})
		return
	}

	month := q.Get("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	snaps, err := h.Availability.Month(r.Context(), id, month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeCached(w, r, map[string]any{"resource_id": id, "month": month, "days": snaps})
}

// ---- Reservations ----

type submitPayload struct {
	ResourceID   int64          `json:"resource_id"`
	GuestName    string         `json:"guest_name"`
	GuestContact string         `json:"guest_contact"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	Guests       map[string]int `json:"guests"`
	Notes        *string        `json:"notes"`
}

func (h *Handlers) submitReservation(w http.ResponseWriter, r *http.Request) {
	var in submitPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "malformed JSON")
		return
	}
	if in.ResourceID <= 0 || in.GuestName == "" {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "resource_id and guest_name are required")
		return
	}
	start, err := parseDate(in.StartDate)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	rng, err := domain.NewRange(start, end)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	guests, err := parseGuests(in.Guests)
	if errors.Is(err, errNegativeGuests) {
		writeProblem(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	rsv, err := h.Booking.SubmitReservation(r.Context(), app.SubmitRequest{
		ResourceID:   in.ResourceID,
		GuestName:    in.GuestName,
		GuestContact: in.GuestContact,
		Range:        rng,
		Guests:       guests,
		Notes:        in.Notes,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rsv)
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	rsv, err := h.Booking.GetReservation(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rsv)
}

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	var q domain.ReservationsQuery
	qs := r.URL.Query()
	if s := qs.Get("resource_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			writeProblem(w, http.StatusBadRequest, "invalid_id", "resource_id must be a positive number")
			return
		}
		q.ResourceID = &id
	}
	if s := qs.Get("status"); s != "" {
		st, err := domain.ParseStatus(s)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid_status", "unknown status "+s)
			return
		}
		q.Status = &st
	}
	if s := qs.Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}
	out, err := h.Booking.ListReservations(r.Context(), q)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": out})
}

func (h *Handlers) attachPaymentProof(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	var body struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Ref == "" {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "a non-empty ref is required")
		return
	}
	rsv, err := h.Booking.AttachPaymentProof(r.Context(), id, body.Ref)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rsv)
}

func (h *Handlers) transitionReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	var body struct {
		Target string `json:"target"`
		Actor  string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "malformed JSON")
		return
	}
	target, err := domain.ParseStatus(body.Target)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_status", "unknown status "+body.Target)
		return
	}
	actor, err := domain.ParseActor(body.Actor)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_actor", "actor must be guest or staff")
		return
	}
	rsv, err := h.Booking.TransitionReservation(r.Context(), id, target, actor)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rsv)
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	var body struct {
		Actor  string `json:"actor"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_body", "malformed JSON")
		return
	}
	actor, err := domain.ParseActor(body.Actor)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_actor", "actor must be guest or staff")
		return
	}
	out, err := h.Booking.CancelReservation(r.Context(), id, actor, body.Reason)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
