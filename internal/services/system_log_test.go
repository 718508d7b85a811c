package services

import (
	"strings"
	"testing"
	"time"

	"github.com/bandhall/bandhall/internal/models"
)

func seedSystemLog(t *testing.T, svc *SystemLogService, level, module, action, message string, at time.Time) {
	t.Helper()
	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		CreatedAt: at,
	}
	if err := svc.db.Create(entry).Error; err != nil {
		t.Fatalf("seed system log: %v", err)
	}
}

func TestSystemLogWrite(t *testing.T) {
	db := newTestDB(t)
	InitSystemLogger(db)
	defer InitSystemLogger(nil)

	userID := uint(42)
	LogInfo("auth", "login", "member logged in", &userID, "10.0.0.1", "test-agent", map[string]string{"email": "user@example.com"})

	var entry models.SystemLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("expected a log row: %v", err)
	}
	if entry.Level != "info" || entry.Module != "auth" || entry.Action != "login" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.UserID == nil || *entry.UserID != 42 {
		t.Errorf("userID = %v", entry.UserID)
	}
	if !strings.Contains(entry.Extra, "user@example.com") {
		t.Errorf("extra = %q", entry.Extra)
	}
}

func TestSystemLogWrite_NoDatabaseIsNoop(t *testing.T) {
	InitSystemLogger(nil)

	// Must not panic before InitSystemLogger has run
	LogWarning("auth", "login", "orphan entry", nil, "", "", nil)
	LogError("ai", "generate", "orphan entry", nil, "", "", nil)
}

func TestSystemLogList_Filters(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	now := time.Now()
	seedSystemLog(t, svc, "info", "auth", "login", "member logged in", now.Add(-time.Hour))
	seedSystemLog(t, svc, "error", "ai", "generate", "provider timeout", now.Add(-30*time.Minute))
	seedSystemLog(t, svc, "info", "auth", "register", "new member", now)

	res, err := svc.List(&SystemLogListRequest{Level: "error"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 {
		t.Fatalf("level filter: total=%d items=%d", res.Total, len(res.Items))
	}
	if res.Items[0].Module != "ai" {
		t.Errorf("item = %+v", res.Items[0])
	}

	res, err = svc.List(&SystemLogListRequest{Module: "auth"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Errorf("module filter total = %d", res.Total)
	}

	res, err = svc.List(&SystemLogListRequest{Search: "timeout"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 {
		t.Errorf("search total = %d", res.Total)
	}
}

func TestSystemLogList_Pagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	now := time.Now()
	for i := 0; i < 5; i++ {
		seedSystemLog(t, svc, "info", "auth", "login", "entry", now.Add(-time.Duration(i)*time.Minute))
	}

	first, err := svc.List(&SystemLogListRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if first.Total != 5 || len(first.Items) != 2 {
		t.Fatalf("page 1: total=%d items=%d", first.Total, len(first.Items))
	}

	third, err := svc.List(&SystemLogListRequest{Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(third.Items) != 1 {
		t.Errorf("page 3 should hold the remainder, got %d items", len(third.Items))
	}

	// Defaults kick in when unset
	defaults, err := svc.List(&SystemLogListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if defaults.Page != 1 || defaults.PageSize != 20 {
		t.Errorf("defaults = page %d size %d", defaults.Page, defaults.PageSize)
	}
}

func TestSystemLogGetModules(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	seedSystemLog(t, svc, "info", "auth", "login", "x", time.Now())
	seedSystemLog(t, svc, "info", "auth", "logout", "x", time.Now())
	seedSystemLog(t, svc, "info", "ai", "generate", "x", time.Now())

	modules, err := svc.GetModules()
	if err != nil {
		t.Fatalf("GetModules() error = %v", err)
	}
	if len(modules) != 2 {
		t.Errorf("modules = %v, expected 2 distinct", modules)
	}
}

func TestSystemLogCleanup(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	now := time.Now()
	seedSystemLog(t, svc, "info", "auth", "login", "old", now.AddDate(0, 0, -40))
	seedSystemLog(t, svc, "info", "auth", "login", "recent", now.Add(-time.Hour))

	deleted, err := svc.CleanupOldLogs(30)
	if err != nil {
		t.Fatalf("CleanupOldLogs() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, expected 1", deleted)
	}
	if n := countRows(t, db, &models.SystemLog{}, "1 = 1"); n != 1 {
		t.Errorf("remaining rows = %d", n)
	}

	// Non-positive retention disables cleanup entirely
	if deleted, err := svc.CleanupOldLogs(0); err != nil || deleted != 0 {
		t.Errorf("CleanupOldLogs(0) = (%d, %v), expected no-op", deleted, err)
	}
}

func TestSystemLogCleanup_UsesConfiguredRetention(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	cfg := &models.SystemConfig{Key: "log_retention_days", Value: "14", Type: "int", Group: "logging"}
	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}

	now := time.Now()
	seedSystemLog(t, svc, "info", "auth", "login", "stale", now.AddDate(0, 0, -20))
	seedSystemLog(t, svc, "info", "auth", "login", "fresh", now.AddDate(0, 0, -5))

	// Same call the on-demand cleanup endpoint makes
	deleted, err := svc.CleanupOldLogs(svc.GetRetentionDays())
	if err != nil {
		t.Fatalf("CleanupOldLogs() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, expected only the 20-day-old entry", deleted)
	}
}

func TestSystemLogRetentionDays(t *testing.T) {
	db := newTestDB(t)
	svc := NewSystemLogService(db)

	// No config row: default 30
	if got := svc.GetRetentionDays(); got != 30 {
		t.Errorf("default retention = %d, expected 30", got)
	}

	cfg := &models.SystemConfig{Key: "log_retention_days", Value: "14", Type: "int", Group: "logging"}
	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if got := svc.GetRetentionDays(); got != 14 {
		t.Errorf("retention = %d, expected 14", got)
	}

	if err := svc.SetRetentionDays(7); err != nil {
		t.Fatalf("SetRetentionDays() error = %v", err)
	}
	if got := svc.GetRetentionDays(); got != 7 {
		t.Errorf("retention after set = %d, expected 7", got)
	}
}
