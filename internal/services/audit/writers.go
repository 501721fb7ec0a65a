package audit

import (
	"context"

	"bankcore/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBWriter stores events in the audit_logs table.
type DBWriter struct {
	db *gorm.DB
}

func NewDBWriter(db *gorm.DB) *DBWriter {
	return &DBWriter{db: db}
}

func (w *DBWriter) Write(ctx context.Context, event Event) error {
	entry := models.AuditLog{
		CustomerID: event.CustomerID,
		IPAddress:  event.IPAddress,
		Action:     event.Action,
		Status:     event.Status,
		Details:    models.JSON(event.Details),
		CreatedAt:  event.At,
	}
	return w.db.WithContext(ctx).Create(&entry).Error
}

// LogWriter emits events as structured log lines.
type LogWriter struct {
	logger *zap.Logger
}

func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger.Named("audit")}
}

func (w *LogWriter) Write(_ context.Context, event Event) error {
	w.logger.Info(event.Action,
		zap.String("status", event.Status),
		zap.String("customer_id", event.CustomerID),
		zap.String("ip_address", event.IPAddress),
		zap.Time("at", event.At),
		zap.Any("details", event.Details))
	return nil
}
