package audit

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rosewood-events/rosewood-backend/pkg/db/models"
	"github.com/rosewood-events/rosewood-backend/pkg/enums"
	pkgerrors "github.com/rosewood-events/rosewood-backend/pkg/errors"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.ActivityLog) error
	listFn   func(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, nil
}

func TestRecordSerializesSnapshots(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.ActivityLog
	repo.createFn = func(ctx context.Context, entry *models.ActivityLog) error {
		created = entry
		return nil
	}

	actorID := uuid.New()
	recordID := uuid.New()
	err = svc.Record(context.Background(), &gorm.DB{}, RecordInput{
		ActorID:   actorID,
		Action:    enums.AuditActionStatusUpdated,
		TableName: "events",
		RecordID:  recordID,
		Old:       map[string]string{"status": "inquiry"},
		New:       map[string]string{"status": "confirmed"},
		Origin:    "10.0.0.7",
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	if created == nil {
		t.Fatal("expected entry to be created")
	}
	if created.ActorID != actorID || created.RecordID != recordID {
		t.Fatalf("unexpected entry identifiers: %+v", created)
	}
	if created.OldValue == nil || !strings.Contains(*created.OldValue, "inquiry") {
		t.Fatalf("old snapshot missing: %v", created.OldValue)
	}
	if created.NewValue == nil || !strings.Contains(*created.NewValue, "confirmed") {
		t.Fatalf("new snapshot missing: %v", created.NewValue)
	}
	if created.Origin == nil || *created.Origin != "10.0.0.7" {
		t.Fatalf("origin missing: %v", created.Origin)
	}
}

func TestRecordRequiresTransaction(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	err = svc.Record(context.Background(), nil, RecordInput{
		ActorID:   uuid.New(),
		Action:    enums.AuditActionEventCreated,
		TableName: "events",
		RecordID:  uuid.New(),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR without tx, got %v", err)
	}
}

func TestRecordValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input RecordInput
	}{
		{
			name: "missing actor",
			input: RecordInput{
				Action:    enums.AuditActionEventCreated,
				TableName: "events",
				RecordID:  uuid.New(),
			},
		},
		{
			name: "invalid action",
			input: RecordInput{
				ActorID:   uuid.New(),
				Action:    enums.AuditAction("not_real"),
				TableName: "events",
				RecordID:  uuid.New(),
			},
		},
		{
			name: "missing table",
			input: RecordInput{
				ActorID:  uuid.New(),
				Action:   enums.AuditActionEventCreated,
				RecordID: uuid.New(),
			},
		},
		{
			name: "missing record id",
			input: RecordInput{
				ActorID:   uuid.New(),
				Action:    enums.AuditActionEventCreated,
				TableName: "events",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Record(context.Background(), &gorm.DB{}, tc.input)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION_ERROR for %s, got %v", tc.name, err)
			}
		})
	}
}

func TestQueryCapsLimit(t *testing.T) {
	var gotFilter ListFilter
	repo := &fakeRepository{
		listFn: func(ctx context.Context, filter ListFilter) ([]models.ActivityLog, error) {
			gotFilter = filter
			return []models.ActivityLog{}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	if _, err := svc.Query(context.Background(), QueryInput{Limit: 10000}); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if gotFilter.Limit != MaxQueryLimit {
		t.Fatalf("expected limit capped at %d, got %d", MaxQueryLimit, gotFilter.Limit)
	}

	if _, err := svc.Query(context.Background(), QueryInput{}); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if gotFilter.Limit != MaxQueryLimit {
		t.Fatalf("expected default limit %d, got %d", MaxQueryLimit, gotFilter.Limit)
	}

	if _, err := svc.Query(context.Background(), QueryInput{Limit: 25}); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if gotFilter.Limit != 25 {
		t.Fatalf("expected explicit limit 25, got %d", gotFilter.Limit)
	}
}
