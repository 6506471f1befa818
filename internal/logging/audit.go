package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names a storefront event written to the audit trail.
type AuditEventType string

const (
	// Session lifecycle
	AuditLogin       AuditEventType = "session_login"
	AuditRegister    AuditEventType = "session_register"
	AuditLogout      AuditEventType = "session_logout"
	AuditRestore     AuditEventType = "session_restore"
	AuditInvalidated AuditEventType = "session_invalidated"

	// Cart
	AuditCartMode     AuditEventType = "cart_mode"
	AuditCartMutation AuditEventType = "cart_mutation"

	// Orders and contact
	AuditOrderPlaced AuditEventType = "order_placed"
	AuditContactSent AuditEventType = "contact_sent"

	// Backend failures
	AuditAPIError AuditEventType = "api_error"
)

// AuditEvent is a single structured audit entry, one JSON line per event.
type AuditEvent struct {
	EventType  AuditEventType
	Category   Category
	RequestID  string
	Target     string
	Action     string
	Success    bool
	DurationMs int64
	Error      string
	Fields     map[string]interface{}
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditFile *os.File
	auditZap  *zap.Logger
	auditMu   sync.Mutex
)

// AuditLogger writes audit events, optionally scoped to a category.
type AuditLogger struct {
	category Category
}

// InitAudit opens <logs>/<date>_audit.log. No-op unless debug mode is on.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}

	configMu.RLock()
	dir := logsDir
	configMu.RUnlock()

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(dir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "event"
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder
	encCfg.LevelKey = ""
	auditZap = zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.DebugLevel))
	return nil
}

// CloseAudit flushes and closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditZap != nil {
		_ = auditZap.Sync()
		auditZap = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns an unscoped audit logger
func Audit() *AuditLogger {
	return &AuditLogger{}
}

// AuditFor returns an audit logger that stamps events with category.
func AuditFor(category Category) *AuditLogger {
	return &AuditLogger{category: category}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditZap == nil {
		return
	}
	if event.Category == "" {
		event.Category = a.category
	}

	fields := []zap.Field{
		zap.String("cat", string(event.Category)),
		zap.Bool("success", event.Success),
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("req", event.RequestID))
	}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.Action != "" {
		fields = append(fields, zap.String("action", event.Action))
	}
	if event.DurationMs > 0 {
		fields = append(fields, zap.Int64("dur_ms", event.DurationMs))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	if len(event.Fields) > 0 {
		fields = append(fields, zap.Any("fields", event.Fields))
	}
	auditZap.Info(string(event.EventType), fields...)
}

// =============================================================================
// CONVENIENCE METHODS
// =============================================================================

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SessionEvent records a login, register, logout, restore or invalidation.
func (a *AuditLogger) SessionEvent(eventType AuditEventType, email string, err error) {
	a.Log(AuditEvent{
		EventType: eventType,
		Category:  CategorySession,
		Target:    email,
		Success:   err == nil,
		Error:     errString(err),
	})
}

// CartMode records a guest/authenticated transition.
func (a *AuditLogger) CartMode(mode string) {
	a.Log(AuditEvent{
		EventType: AuditCartMode,
		Category:  CategoryCart,
		Target:    mode,
		Success:   true,
	})
}

// CartMutation records a cart operation against a service id.
func (a *AuditLogger) CartMutation(action, serviceID, mode string, durationMs int64, err error) {
	a.Log(AuditEvent{
		EventType:  AuditCartMutation,
		Category:   CategoryCart,
		Action:     action,
		Target:     serviceID,
		Success:    err == nil,
		DurationMs: durationMs,
		Error:      errString(err),
		Fields:     map[string]interface{}{"mode": mode},
	})
}

// OrderPlaced records a checkout outcome.
func (a *AuditLogger) OrderPlaced(orderNumber string, total int64, items int, err error) {
	a.Log(AuditEvent{
		EventType: AuditOrderPlaced,
		Category:  CategoryCheckout,
		Target:    orderNumber,
		Success:   err == nil,
		Error:     errString(err),
		Fields:    map[string]interface{}{"total": total, "items": items},
	})
}

// ContactSent records delivery of a contact form.
func (a *AuditLogger) ContactSent(channel string, err error) {
	a.Log(AuditEvent{
		EventType: AuditContactSent,
		Category:  CategoryContact,
		Target:    channel,
		Success:   err == nil,
		Error:     errString(err),
	})
}

// APIError records a failed backend call.
func (a *AuditLogger) APIError(requestID, method, path string, status int, err error) {
	a.Log(AuditEvent{
		EventType: AuditAPIError,
		Category:  CategoryAPI,
		RequestID: requestID,
		Action:    method,
		Target:    path,
		Error:     errString(err),
		Fields:    map[string]interface{}{"status": status},
	})
}
