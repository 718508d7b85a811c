package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/internal/models"
	"github.com/rickar/cal/v2"
)

// nextWeekday returns t advanced past any weekend.
func nextWeekday(t time.Time) time.Time {
	for cal.IsWeekend(t) {
		t = t.Add(24 * time.Hour)
	}
	return t
}

// nextWeekendDay returns the next Saturday or Sunday at or after t.
func nextWeekendDay(t time.Time) time.Time {
	for !cal.IsWeekend(t) {
		t = t.Add(24 * time.Hour)
	}
	return t
}

// captureQueue records enqueued tasks for assertions.
type captureQueue struct {
	mu    sync.Mutex
	tasks []*NotifyTask
}

func (q *captureQueue) Enqueue(task *NotifyTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *captureQueue) IsAsync() bool { return false }
func (q *captureQueue) Close() error  { return nil }

func (q *captureQueue) all() []*NotifyTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*NotifyTask(nil), q.tasks...)
}

func TestFormatDigest(t *testing.T) {
	got := formatDigest(map[string]int64{
		LogEntityProposal: 2,
		LogEntityVote:     1,
		LogEntityComment:  5,
	})

	if !strings.HasPrefix(got, "Activity in the last 24 hours: ") {
		t.Errorf("unexpected prefix: %q", got)
	}
	for _, want := range []string{"2 proposals", "1 vote", "5 comments"} {
		if !strings.Contains(got, want) {
			t.Errorf("digest %q missing %q", got, want)
		}
	}
	// Stable ordering: proposals before votes before comments
	if strings.Index(got, "2 proposals") > strings.Index(got, "1 vote") {
		t.Errorf("digest order wrong: %q", got)
	}
}

func TestFormatDigest_Empty(t *testing.T) {
	if got := formatDigest(nil); got != "No activity in the last 24 hours." {
		t.Errorf("empty digest = %q", got)
	}
	if got := formatDigest(map[string]int64{LogEntityTask: 0}); got != "No activity in the last 24 hours." {
		t.Errorf("zero counts digest = %q", got)
	}
}

func TestBandCountryCode(t *testing.T) {
	cases := []struct {
		country string
		want    string
	}{
		{"us", "US"},
		{" GB ", "GB"},
		{"Germany", ""},
		{"", ""},
	}
	for _, tc := range cases {
		band := &models.Band{Country: tc.country}
		if got := bandCountryCode(band); got != tc.want {
			t.Errorf("bandCountryCode(%q) = %q, expected %q", tc.country, got, tc.want)
		}
	}
}

func TestDigestRun(t *testing.T) {
	f := newBandFixture(t)
	queue := &captureQueue{}

	// Opt the band in
	if err := f.db.Model(&models.Band{}).Where("id = ?", f.band.ID).
		Update("notify_webhook", "https://hooks.example.com/band").Error; err != nil {
		t.Fatalf("set webhook: %v", err)
	}

	// A band without a webhook never gets a digest
	quietUser := createUser(t, f.db, "quiet@example.com")
	quietBand, err := f.bands.Create(quietUser.ID, &CreateBandRequest{Name: "Quiet Band"})
	if err != nil {
		t.Fatalf("create quiet band: %v", err)
	}

	digest := NewDigestService(f.db, &config.Config{}, f.log, queue, NewHolidayService())

	// Any weekday works; the fixture band has no country calendar
	now := nextWeekday(time.Now())
	appendEntryAt(t, f, LogEntityProposal, "created", now.Add(-2*time.Hour))
	appendEntryAt(t, f, LogEntityVote, "cast", now.Add(-time.Hour))

	digest.Run(now)

	tasks := queue.all()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(tasks))
	}
	task := tasks[0]
	if task.BandID != f.band.ID {
		t.Errorf("digest for band %d, expected %d", task.BandID, f.band.ID)
	}
	if task.Event != "digest.daily" {
		t.Errorf("event = %q", task.Event)
	}
	if !strings.Contains(task.Message, "1 proposal") || !strings.Contains(task.Message, "1 vote") {
		t.Errorf("message = %q", task.Message)
	}

	for _, got := range tasks {
		if got.BandID == quietBand.ID {
			t.Error("band without webhook must not receive a digest")
		}
	}
}

func TestDigestRun_SkipsQuietBands(t *testing.T) {
	f := newBandFixture(t)
	queue := &captureQueue{}

	if err := f.db.Model(&models.Band{}).Where("id = ?", f.band.ID).
		Update("notify_webhook", "https://hooks.example.com/band").Error; err != nil {
		t.Fatalf("set webhook: %v", err)
	}

	digest := NewDigestService(f.db, &config.Config{}, f.log, queue, NewHolidayService())

	// Drop the fixture's setup activity so the window is empty
	if err := f.db.Where("band_id = ?", f.band.ID).Delete(&models.ActivityLogEntry{}).Error; err != nil {
		t.Fatalf("clear log: %v", err)
	}

	digest.Run(nextWeekday(time.Now()))

	if got := len(queue.all()); got != 0 {
		t.Errorf("band with no recent activity should be skipped, got %d digests", got)
	}
}

func TestDigestRun_SkipsWeekend(t *testing.T) {
	f := newBandFixture(t)
	queue := &captureQueue{}

	if err := f.db.Model(&models.Band{}).Where("id = ?", f.band.ID).
		Update("notify_webhook", "https://hooks.example.com/band").Error; err != nil {
		t.Fatalf("set webhook: %v", err)
	}

	digest := NewDigestService(f.db, &config.Config{}, f.log, queue, NewHolidayService())

	weekend := nextWeekendDay(time.Now())
	appendEntryAt(t, f, LogEntityProposal, "created", weekend.Add(-time.Hour))

	digest.Run(weekend)

	if got := len(queue.all()); got != 0 {
		t.Errorf("weekend run should skip every band, got %d digests", got)
	}
}
