package services

import (
	"errors"
	"testing"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// A second connection would see its own empty :memory: database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.MigrateAll(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Role:     "user",
		AuthType: "local",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

// bandFixture is a band with one captain and one regular member, plus the
// services wired to the same database.
type bandFixture struct {
	db      *gorm.DB
	log     *ActivityLogService
	bands   *BandService
	band    *models.Band
	captain *models.Member
	member  *models.Member
}

func newBandFixture(t *testing.T) *bandFixture {
	t.Helper()

	db := newTestDB(t)
	log := NewActivityLogService(db)
	bands := NewBandService(db, log)

	captainUser := createUser(t, db, "captain@example.com")
	band, err := bands.Create(captainUser.ID, &CreateBandRequest{Name: "The Night Owls"})
	if err != nil {
		t.Fatalf("create band: %v", err)
	}

	captain, err := bands.RequireMember(band.ID, captainUser.ID)
	if err != nil {
		t.Fatalf("resolve captain: %v", err)
	}

	memberUser := createUser(t, db, "drummer@example.com")
	member, err := bands.AddMember(band.ID, captain, &AddMemberRequest{Email: memberUser.Email})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}

	return &bandFixture{
		db:      db,
		log:     log,
		bands:   bands,
		band:    band,
		captain: captain,
		member:  member,
	}
}

// addMember enrolls one more regular member into the fixture band.
func (f *bandFixture) addMember(t *testing.T, email string) *models.Member {
	t.Helper()
	createUser(t, f.db, email)
	member, err := f.bands.AddMember(f.band.ID, f.captain, &AddMemberRequest{Email: email})
	if err != nil {
		t.Fatalf("add member %s: %v", email, err)
	}
	return member
}

// openVoting forces a proposal into voting state with an open window,
// bypassing the review workflow.
func openVoting(t *testing.T, db *gorm.DB, proposal *models.Proposal) {
	t.Helper()
	now := time.Now()
	ends := now.Add(72 * time.Hour)
	proposal.State = models.ProposalStateVoting
	proposal.VotingStartsAt = &now
	proposal.VotingEndsAt = &ends
	if err := db.Save(proposal).Error; err != nil {
		t.Fatalf("open voting: %v", err)
	}
}

// closeVotingWindow backdates a voting proposal's window so it can be
// finalized.
func closeVotingWindow(t *testing.T, db *gorm.DB, proposal *models.Proposal) {
	t.Helper()
	ended := time.Now().Add(-time.Minute)
	proposal.VotingEndsAt = &ended
	if err := db.Save(proposal).Error; err != nil {
		t.Fatalf("close voting window: %v", err)
	}
}

// wantAppErr fails the test unless err is an AppError with the given code.
func wantAppErr(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %q, got %q (%s)", code, appErr.Code, appErr.Message)
	}
}

// countRows counts rows of the model matching the condition.
func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
