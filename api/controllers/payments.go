package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rosewood-events/rosewood-backend/api/middleware"
	"github.com/rosewood-events/rosewood-backend/api/responses"
	"github.com/rosewood-events/rosewood-backend/api/validators"
	"github.com/rosewood-events/rosewood-backend/internal/payments"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
	"github.com/rosewood-events/rosewood-backend/pkg/logger"
	"github.com/rosewood-events/rosewood-backend/pkg/money"
)

type recordPaymentRequest struct {
	EventID         string       `json:"event_id" validate:"required,uuid"`
	Amount          money.Amount `json:"amount"`
	Method          string       `json:"method" validate:"required"`
	Type            *string      `json:"type,omitempty"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
	PaymentDate     *string      `json:"payment_date,omitempty"`
}

type updatePaymentRequest struct {
	Method      *string `json:"method,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	PaymentDate *string `json:"payment_date,omitempty"`
}

// RecordPayment stores a payment against an event and returns the
// classification outcome.
func RecordPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := validators.ParsePathUUID(req.EventID, "event_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(req.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := payments.RecordPaymentInput{
			Actor:           actor,
			EventID:         eventID,
			Amount:          req.Amount,
			Method:          method,
			ReferenceNumber: req.ReferenceNumber,
			Notes:           req.Notes,
		}
		if req.Type != nil {
			explicitType, parseErr := enums.ParsePaymentType(strings.TrimSpace(*req.Type))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment type"))
				return
			}
			input.ExplicitType = &explicitType
		}
		if req.PaymentDate != nil {
			paymentDate, parseErr := parsePaymentDate(*req.PaymentDate)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.PaymentDate = &paymentDate
		}

		result, err := svc.RecordPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListPayments returns payments, scoped to one event via ?event_id.
func ListPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.ListPaymentsInput{Actor: actor}
		eventID, err := validators.ParseQueryUUID(r, "event_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if eventID != uuid.Nil {
			input.EventID = &eventID
		}

		rows, err := svc.ListPayments(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// GetPayment returns one payment row.
func GetPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParsePathUUID(chi.URLParam(r, "paymentID"), "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.GetPayment(r.Context(), actor, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// UpdatePayment applies a correction to the mutable payment fields.
func UpdatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParsePathUUID(chi.URLParam(r, "paymentID"), "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.UpdatePaymentInput{
			Actor:     actor,
			PaymentID: paymentID,
			Notes:     req.Notes,
		}
		if req.Method != nil {
			method, parseErr := enums.ParsePaymentMethod(strings.TrimSpace(*req.Method))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment method"))
				return
			}
			input.Method = &method
		}
		if req.PaymentDate != nil {
			paymentDate, parseErr := parsePaymentDate(*req.PaymentDate)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			input.PaymentDate = &paymentDate
		}

		payment, err := svc.UpdatePayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// DeletePayment removes a payment row. Staff only.
func DeletePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParsePathUUID(chi.URLParam(r, "paymentID"), "paymentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePayment(r.Context(), payments.DeletePaymentInput{
			Actor:     actor,
			PaymentID: paymentID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parsePaymentDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(eventDateLayout, raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "payment_date must be RFC3339 or YYYY-MM-DD")
	}
	return parsed, nil
}
