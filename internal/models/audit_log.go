package models

import "time"

// AuditAction identifies a sensitive operation worth an audit trail entry.
type AuditAction string

const (
	AuditActionLogin      AuditAction = "LOGIN"
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionSoftDelete AuditAction = "SOFT_DELETE"
	AuditActionRestore    AuditAction = "RESTORE"
	AuditActionHardDelete AuditAction = "HARD_DELETE"
	AuditActionExport     AuditAction = "EXPORT"
)

// AuditLog records sensitive user operations. Rows are append-only:
// never updated, never deleted. ActorID is nullable because the acting
// user may be deleted after the fact; the log entry survives.
type AuditLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	ActorID    *uint       `gorm:"index" json:"actor_id,omitempty"`
	Action     AuditAction `gorm:"size:20;not null;index" json:"action"`
	ObjectType string      `gorm:"size:60;not null" json:"object_type"`
	ObjectID   string      `gorm:"size:64;not null" json:"object_id"`
	Timestamp  time.Time   `gorm:"autoCreateTime;not null;index" json:"timestamp"`
	Metadata   string      `json:"metadata,omitempty"`
}
