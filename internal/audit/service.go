package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
)

// MaxQueryLimit caps how many activity rows any single query returns.
const MaxQueryLimit = 500

// Service records and reads the append-only activity trail.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) error
	Query(ctx context.Context, input QueryInput) ([]models.ActivityLog, error)
}

type service struct {
	repo Repository
}

// RecordInput captures everything an audit entry requires. Old and New are
// serialized to JSON snapshots when present.
type RecordInput struct {
	ActorID   uuid.UUID
	Action    enums.AuditAction
	TableName string
	RecordID  uuid.UUID
	Old       any
	New       any
	Origin    string
}

// QueryInput narrows the activity listing.
type QueryInput struct {
	RecordID  uuid.UUID
	ActorID   uuid.UUID
	Action    enums.AuditAction
	TableName string
	SinceDays int
	Limit     int
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

// Record appends an entry inside the caller's transaction. A failed append
// fails the whole transaction; mutations and their audit trail commit together.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "audit record requires a transaction")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if !input.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid audit action %q", input.Action))
	}
	if input.TableName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "table name required")
	}
	if input.RecordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}

	oldValue, err := snapshot(input.Old)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize old value")
	}
	newValue, err := snapshot(input.New)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize new value")
	}

	entry := &models.ActivityLog{
		ActorID:   input.ActorID,
		Action:    input.Action,
		TableName: input.TableName,
		RecordID:  input.RecordID,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
	if input.Origin != "" {
		entry.Origin = &input.Origin
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append activity log")
	}
	return nil
}

func (s *service) Query(ctx context.Context, input QueryInput) ([]models.ActivityLog, error) {
	limit := input.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	if input.Action != "" && !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid audit action %q", input.Action))
	}
	filter := ListFilter{
		RecordID:  input.RecordID,
		ActorID:   input.ActorID,
		Action:    input.Action,
		TableName: input.TableName,
		Limit:     limit,
	}
	if input.SinceDays > 0 {
		filter.Since = time.Now().UTC().AddDate(0, 0, -input.SinceDays)
	}
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query activity log")
	}
	return entries, nil
}

func snapshot(value any) (*string, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}
