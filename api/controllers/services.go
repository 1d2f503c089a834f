package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rosewood-events/rosewood-backend/api/middleware"
	"github.com/rosewood-events/rosewood-backend/api/responses"
	"github.com/rosewood-events/rosewood-backend/api/validators"
	"github.com/rosewood-events/rosewood-backend/internal/booking"
	"github.com/rosewood-events/rosewood-backend/internal/catalog"
	"github.com/rosewood-events/rosewood-backend/pkg/logger"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

type addServiceRequest struct {
	ServiceID   string        `json:"service_id" validate:"required,uuid"`
	Quantity    int           `json:"quantity" validate:"required,min=1"`
	AgreedPrice *money.Amount `json:"agreed_price,omitempty"`
}

// AddEventService books a catalog service onto an event.
func AddEventService(svc booking.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req addServiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serviceID, err := validators.ParsePathUUID(req.ServiceID, "service_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddService(r.Context(), booking.AddServiceInput{
			Actor:       actor,
			EventID:     eventID,
			ServiceID:   serviceID,
			Quantity:    req.Quantity,
			AgreedPrice: req.AgreedPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListEventServices returns the event's service lines with subtotals.
func ListEventServices(svc booking.Service, logg *logger.Logger) http.HandlerFunc {
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

		listing, err := svc.ListServices(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// CancelEventService cancels one booked line.
func CancelEventService(svc booking.Service, logg *logger.Logger) http.HandlerFunc {
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
		lineID, err := validators.ParsePathUUID(chi.URLParam(r, "serviceID"), "serviceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.CancelService(r.Context(), booking.CancelServiceInput{
			Actor:     actor,
			EventID:   eventID,
			ServiceID: lineID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// ListCatalogServices returns the bookable catalog, optionally narrowed
// by category.
func ListCatalogServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.ListServices(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, services)
	}
}
