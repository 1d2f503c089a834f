package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rosewood-events/rosewood-backend/pkg/enums"
)

// ActivityLog is an append-only audit entry. Rows are written inside the same
// transaction as the mutation they describe and are never updated.
type ActivityLog struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID   uuid.UUID         `gorm:"column:actor_id;type:uuid;not null;index"`
	Action    enums.AuditAction `gorm:"column:action;type:audit_action;not null"`
	TableName string            `gorm:"column:table_name;not null"`
	RecordID  uuid.UUID         `gorm:"column:record_id;type:uuid;not null;index"`
	OldValue  *string           `gorm:"column:old_value"`
	NewValue  *string           `gorm:"column:new_value"`
	Origin    *string           `gorm:"column:origin"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}
