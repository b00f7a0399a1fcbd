// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratadmin/internal/app/store/audit"
	"github.com/dalemusser/stratadmin/internal/app/system/auth"
	"github.com/dalemusser/stratadmin/internal/app/system/network"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in events.
	Auth string
	// Admin controls logging for data changes made through the console.
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and structured
// logs (via zap). With a nil store, "db" destinations are skipped and "all"
// behaves like "log".
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when no audit database is configured.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// Store returns the backing store, or nil.
func (l *Logger) Store() *audit.Store {
	if l == nil {
		return nil
	}
	return l.store
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.Int("user_id", *event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) mode(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	default:
		return ModeAll
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.mode(event.Category)
	if setting == ModeOff {
		return
	}

	toDB := (setting == ModeAll || setting == ModeDB) && l.store != nil
	toLog := setting == ModeAll || setting == ModeLog || (setting == ModeDB && l.store == nil)

	if toLog {
		l.logToZap(event)
	}

	if toDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestEvent(r *http.Request, category, eventType string) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        network.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
	if u, ok := auth.CurrentUser(r); ok {
		id := u.ID
		e.UserID = &id
		e.Email = u.Email
	}
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful password login.
func (l *Logger) LoginSuccess(r *http.Request, userID int, email string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.Email = email
	l.Log(r.Context(), e)
}

// LoginFailed logs a rejected password login.
func (l *Logger) LoginFailed(r *http.Request, email, reason string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailed)
	e.Email = email
	e.Success = false
	e.FailureReason = reason
	l.Log(r.Context(), e)
}

// OktaLogin logs an identity-provider sign-in.
func (l *Logger) OktaLogin(r *http.Request, userID int, email string, created bool) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventOktaLogin)
	e.UserID = &userID
	e.Email = email
	e.Details = map[string]string{"created": strconv.FormatBool(created)}
	l.Log(r.Context(), e)
}

// --- Admin Events ---

// TableCreated logs a table created through the table editor.
func (l *Logger) TableCreated(r *http.Request, table string, columns int) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventTableCreated)
	e.Details = map[string]string{"table": table, "columns": strconv.Itoa(columns)}
	l.Log(r.Context(), e)
}

// TableRowInserted logs a row inserted through the table editor.
func (l *Logger) TableRowInserted(r *http.Request, table string, affected int64) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventTableRowInserted)
	e.Details = map[string]string{"table": table, "affected": strconv.FormatInt(affected, 10)}
	l.Log(r.Context(), e)
}

// TableRowUpdated logs a row updated through the table editor.
func (l *Logger) TableRowUpdated(r *http.Request, table string, affected int64) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventTableRowUpdated)
	e.Details = map[string]string{"table": table, "affected": strconv.FormatInt(affected, 10)}
	l.Log(r.Context(), e)
}

// FolderDeleted logs a folder (and its subtree) being deleted.
func (l *Logger) FolderDeleted(r *http.Request, folderID int, name string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventFolderDeleted)
	e.Details = map[string]string{"folder_id": strconv.Itoa(folderID), "name": name}
	l.Log(r.Context(), e)
}

// FileUploaded logs an upload.
func (l *Logger) FileUploaded(r *http.Request, fileID int, originalName string, size int64) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventFileUploaded)
	e.Details = map[string]string{
		"file_id":       strconv.Itoa(fileID),
		"original_name": originalName,
		"size":          strconv.FormatInt(size, 10),
	}
	l.Log(r.Context(), e)
}

// FileDeleted logs a file removal.
func (l *Logger) FileDeleted(r *http.Request, fileID int, originalName string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventFileDeleted)
	e.Details = map[string]string{"file_id": strconv.Itoa(fileID), "original_name": originalName}
	l.Log(r.Context(), e)
}
