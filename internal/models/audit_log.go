package models

import "time"

// AuditLog is one persisted audit event.
type AuditLog struct {
	ID         uint   `gorm:"primarykey"`
	CustomerID string `gorm:"size:64;index"`
	IPAddress  string `gorm:"size:64"`
	Action     string `gorm:"size:64;not null;index"`
	Status     string `gorm:"size:16;not null"`
	Details    JSON   `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
