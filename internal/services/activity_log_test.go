package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
)

func appendEntryAt(t *testing.T, f *bandFixture, entityType, action string, at time.Time) {
	t.Helper()
	entry := &models.ActivityLogEntry{
		BandID:        f.band.ID,
		ActorMemberID: f.captain.ID,
		EntityType:    entityType,
		EntityID:      1,
		EntityName:    "backdated",
		Action:        action,
		CreatedAt:     at,
	}
	if err := f.db.Create(entry).Error; err != nil {
		t.Fatalf("create log entry: %v", err)
	}
}

func TestActivityLogAppend_SerializesChanges(t *testing.T) {
	f := newBandFixture(t)

	changes := map[string]Change{
		"state": {From: "draft", To: "in_review"},
	}
	if err := f.log.Append(nil, f.band.ID, f.captain.ID, LogEntityProposal, 7, "Buy a PA", "submitted", changes); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	var entry models.ActivityLogEntry
	if err := f.db.Where("band_id = ? AND action = ?", f.band.ID, "submitted").First(&entry).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}

	var ctx struct {
		Changes map[string]Change `json:"changes"`
	}
	if err := json.Unmarshal([]byte(entry.Context), &ctx); err != nil {
		t.Fatalf("context is not valid JSON: %v", err)
	}
	if ctx.Changes["state"].From != "draft" || ctx.Changes["state"].To != "in_review" {
		t.Errorf("state change = %+v", ctx.Changes["state"])
	}
}

func TestActivityLogAppendDetail(t *testing.T) {
	f := newBandFixture(t)

	detail := map[string]interface{}{"proposalId": 7, "choice": "approve"}
	if err := f.log.AppendDetail(nil, f.band.ID, f.member.ID, LogEntityVote, 3, "Buy a PA", "cast", detail); err != nil {
		t.Fatalf("AppendDetail() error = %v", err)
	}

	var entry models.ActivityLogEntry
	if err := f.db.Where("band_id = ? AND entity_type = ?", f.band.ID, LogEntityVote).First(&entry).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}

	var ctx struct {
		Detail map[string]interface{} `json:"detail"`
	}
	if err := json.Unmarshal([]byte(entry.Context), &ctx); err != nil {
		t.Fatalf("context is not valid JSON: %v", err)
	}
	if ctx.Detail["choice"] != "approve" {
		t.Errorf("detail = %+v", ctx.Detail)
	}
}

func TestActivityLogList_FilterByEntityType(t *testing.T) {
	f := newBandFixture(t)
	now := time.Now()

	appendEntryAt(t, f, LogEntityProposal, "created", now)
	appendEntryAt(t, f, LogEntityProposal, "submitted", now)
	appendEntryAt(t, f, LogEntityProject, "created", now)

	result, err := f.log.List(f.band.ID, &ActivityLogListRequest{EntityType: LogEntityProposal})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 2 {
		t.Errorf("total = %d, expected 2", result.Total)
	}
	for _, entry := range result.Entries {
		if entry.EntityType != LogEntityProposal {
			t.Errorf("unexpected entity type %q in filtered list", entry.EntityType)
		}
	}
}

func TestActivityLogList_FilterByActor(t *testing.T) {
	f := newBandFixture(t)

	// Fixture setup already logged entries by the captain; add one by the member
	if err := f.log.Append(nil, f.band.ID, f.member.ID, LogEntityComment, 1, "", "posted", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	result, err := f.log.List(f.band.ID, &ActivityLogListRequest{ActorID: f.member.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("total = %d, expected 1 entry by the member", result.Total)
	}
}

func TestActivityLogList_Pagination(t *testing.T) {
	f := newBandFixture(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		appendEntryAt(t, f, LogEntityTask, "created", base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := f.log.List(f.band.ID, &ActivityLogListRequest{EntityType: LogEntityTask, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page1.Total != 5 {
		t.Errorf("total = %d, expected 5", page1.Total)
	}
	if len(page1.Entries) != 2 {
		t.Fatalf("page size = %d, expected 2", len(page1.Entries))
	}

	page2, err := f.log.List(f.band.ID, &ActivityLogListRequest{EntityType: LogEntityTask, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() offset error = %v", err)
	}
	if len(page2.Entries) != 2 {
		t.Fatalf("second page size = %d", len(page2.Entries))
	}
	if page1.Entries[0].ID == page2.Entries[0].ID {
		t.Error("pages must not overlap")
	}

	// Newest first
	if !page1.Entries[0].CreatedAt.After(page1.Entries[1].CreatedAt) {
		t.Error("entries should be ordered newest first")
	}
}

func TestActivityLogList_DefaultLimit(t *testing.T) {
	f := newBandFixture(t)

	result, err := f.log.List(f.band.ID, &ActivityLogListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != 50 {
		t.Errorf("default limit = %d, expected 50", result.Limit)
	}
}

func TestActivityLogList_DateRange(t *testing.T) {
	f := newBandFixture(t)

	appendEntryAt(t, f, LogEntityDiscussion, "started", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	appendEntryAt(t, f, LogEntityDiscussion, "started", time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	appendEntryAt(t, f, LogEntityDiscussion, "started", time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))

	result, err := f.log.List(f.band.ID, &ActivityLogListRequest{
		EntityType: LogEntityDiscussion,
		StartDate:  "2026-03-12",
		EndDate:    "2026-03-15", // inclusive: entries on the end date count
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("total = %d, expected only the 03-15 entry", result.Total)
	}

	_, err = f.log.List(f.band.ID, &ActivityLogListRequest{StartDate: "15/03/2026"})
	wantAppErr(t, err, response.CodeValidation)
}

func TestActivityLogGet_ScopedToBand(t *testing.T) {
	f := newBandFixture(t)

	var entry models.ActivityLogEntry
	if err := f.db.Where("band_id = ?", f.band.ID).First(&entry).Error; err != nil {
		t.Fatalf("fixture should have log entries: %v", err)
	}

	got, err := f.log.Get(f.band.ID, entry.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != entry.ID {
		t.Errorf("got entry %d, expected %d", got.ID, entry.ID)
	}

	_, err = f.log.Get(f.band.ID+1, entry.ID)
	wantAppErr(t, err, response.CodeNotFound)
}

func TestActivityLogCountSince(t *testing.T) {
	f := newBandFixture(t)
	now := time.Now()

	appendEntryAt(t, f, LogEntityProposal, "created", now.Add(-2*time.Hour))
	appendEntryAt(t, f, LogEntityProposal, "submitted", now.Add(-time.Hour))
	appendEntryAt(t, f, LogEntityVote, "cast", now.Add(-30*time.Minute))
	appendEntryAt(t, f, LogEntityVote, "cast", now.Add(-48*time.Hour)) // outside window

	counts, err := f.log.CountSince(f.band.ID, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("CountSince() error = %v", err)
	}
	if counts[LogEntityProposal] != 2 {
		t.Errorf("proposal count = %d, expected 2", counts[LogEntityProposal])
	}
	if counts[LogEntityVote] != 1 {
		t.Errorf("vote count = %d, expected 1", counts[LogEntityVote])
	}
}
