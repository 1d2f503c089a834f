package controllers

import (
	"net/http"
	"strings"

	"github.com/rosewood-events/rosewood-backend/api/responses"
	"github.com/rosewood-events/rosewood-backend/api/validators"
	"github.com/rosewood-events/rosewood-backend/internal/audit"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	"github.com/rosewood-events/rosewood-backend/pkg/logger"
)

// ListActivity queries the audit trail. Mounted behind the staff guard.
func ListActivity(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", audit.MaxQueryLimit, 1, audit.MaxQueryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sinceDays, err := validators.ParseQueryInt(r, "since_days", 0, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recordID, err := validators.ParseQueryUUID(r, "record_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := validators.ParseQueryUUID(r, "actor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.Query(r.Context(), audit.QueryInput{
			RecordID:  recordID,
			ActorID:   actorID,
			Action:    enums.AuditAction(strings.TrimSpace(r.URL.Query().Get("action"))),
			TableName: strings.TrimSpace(r.URL.Query().Get("table")),
			SinceDays: sinceDays,
			Limit:     limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
