package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rosewood-events/rosewood-backend/api/middleware"
	"github.com/rosewood-events/rosewood-backend/api/responses"
	"github.com/rosewood-events/rosewood-backend/api/validators"
	"github.com/rosewood-events/rosewood-backend/internal/ledger"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/logger"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
	"github.com/rosewood-events/rosewood-backend/pkg/pagination"
)

const eventDateLayout = "2006-01-02"

type createEventRequest struct {
	ClientID     string        `json:"client_id,omitempty" validate:"omitempty,uuid"`
	EventTypeID  string        `json:"event_type_id" validate:"required,uuid"`
	Name         string        `json:"name" validate:"required,min=1,max=200"`
	EventDate    string        `json:"event_date" validate:"required"`
	EventTime    *string       `json:"event_time,omitempty"`
	Venue        *string       `json:"venue,omitempty"`
	GuestCount   int           `json:"guest_count,omitempty" validate:"omitempty,min=1"`
	Budget       *money.Amount `json:"budget,omitempty"`
	SpecialNotes *string       `json:"special_notes,omitempty"`
}

type updateEventRequest struct {
	Name         *string       `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	EventDate    *string       `json:"event_date,omitempty"`
	EventTime    *string       `json:"event_time,omitempty"`
	Venue        *string       `json:"venue,omitempty"`
	GuestCount   *int          `json:"guest_count,omitempty" validate:"omitempty,min=1"`
	Budget       *money.Amount `json:"budget,omitempty"`
	SpecialNotes *string       `json:"special_notes,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateEvent opens a new booking inquiry.
func CreateEvent(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventTypeID, err := validators.ParsePathUUID(req.EventTypeID, "event_type_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventDate, err := parseEventDate(req.EventDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ledger.CreateEventInput{
			Actor:        actor,
			EventTypeID:  eventTypeID,
			Name:         strings.TrimSpace(req.Name),
			EventDate:    eventDate,
			EventTime:    req.EventTime,
			Venue:        req.Venue,
			GuestCount:   req.GuestCount,
			Budget:       req.Budget,
			SpecialNotes: req.SpecialNotes,
		}
		if req.ClientID != "" {
			clientID, parseErr := validators.ParsePathUUID(req.ClientID, "client_id")
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.ClientID = clientID
		}

		event, err := svc.CreateEvent(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

// GetEvent returns the event with its derived financial summary.
func GetEvent(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := validators.ParsePathUUID(chi.URLParam(r, "eventID"), "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetEvent(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// UpdateEvent applies partial edits to a non-terminal event.
func UpdateEvent(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := validators.ParsePathUUID(chi.URLParam(r, "eventID"), "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ledger.UpdateEventInput{
			Actor:        actor,
			EventID:      eventID,
			Name:         req.Name,
			EventTime:    req.EventTime,
			Venue:        req.Venue,
			GuestCount:   req.GuestCount,
			Budget:       req.Budget,
			SpecialNotes: req.SpecialNotes,
		}
		if req.EventDate != nil {
			eventDate, parseErr := parseEventDate(*req.EventDate)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.EventDate = &eventDate
		}

		event, err := svc.UpdateEvent(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

// ListEvents pages the caller's visible events.
func ListEvents(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := validators.ParseQueryUUID(r, "client_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ledger.ListEventsInput{
			Actor:    actor,
			ClientID: clientID,
			Page: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseEventStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			input.Status = status
		}
		input.Search = strings.TrimSpace(r.URL.Query().Get("search"))
		if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
			from, parseErr := parseEventDate(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.DateFrom = &from
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
			to, parseErr := parseEventDate(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.DateTo = &to
		}

		page, err := svc.ListEvents(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// UpcomingEvents returns the near-term schedule for dashboards.
func UpcomingEvents(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 0, 1, 60)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.UpcomingEvents(r.Context(), actor, days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

// UpdateEventStatus drives the event state machine. Staff only.
func UpdateEventStatus(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := validators.ParsePathUUID(chi.URLParam(r, "eventID"), "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseEventStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		event, err := svc.UpdateStatus(r.Context(), ledger.UpdateStatusInput{
			Actor:   actor,
			EventID: eventID,
			Status:  status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

// DeleteEvent removes an event and its dependent rows. Clients may delete
// their own events while no completed payments exist.
func DeleteEvent(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := validators.ParsePathUUID(chi.URLParam(r, "eventID"), "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteEvent(r.Context(), actor, eventID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// EventFinancials returns the derived money summary on its own.
func EventFinancials(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := validators.ParsePathUUID(chi.URLParam(r, "eventID"), "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		financials, err := svc.GetFinancials(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, financials)
	}
}

func parseEventDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(eventDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "event_date must be formatted YYYY-MM-DD")
	}
	return parsed, nil
}
