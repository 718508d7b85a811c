package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// Log entity types used across the domain services.
const (
	LogEntityBand       = "band"
	LogEntityMember     = "member"
	LogEntityProposal   = "proposal"
	LogEntityVote       = "vote"
	LogEntityProject    = "project"
	LogEntityTask       = "task"
	LogEntityComment    = "comment"
	LogEntityDiscussion = "discussion"
	LogEntityImage      = "image"
	LogEntityDocument   = "document"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// BandService manages bands and their membership registry. Every other
// domain service resolves the caller's member identity through it.
type BandService struct {
	db  *gorm.DB
	log *ActivityLogService
}

func NewBandService(db *gorm.DB, log *ActivityLogService) *BandService {
	return &BandService{db: db, log: log}
}

type CreateBandRequest struct {
	Name             string `json:"name" binding:"required,min=2,max=200"`
	Description      string `json:"description"`
	ShortDescription string `json:"shortDescription" binding:"omitempty,max=500"`
	City             string `json:"city"`
	StateProvince    string `json:"stateProvince"`
	Country          string `json:"country"`
	IsPublic         *bool  `json:"isPublic"`
}

// Create creates a band and enrolls the creator as its captain in one
// transaction. A band without a captain can never exist.
func (s *BandService) Create(userID uint, req *CreateBandRequest) (*models.Band, error) {
	band := &models.Band{
		Name:             req.Name,
		Slug:             s.uniqueSlug(req.Name),
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		City:             req.City,
		StateProvince:    req.StateProvince,
		Country:          req.Country,
		IsPublic:         true,
		CreatedBy:        userID,
	}
	if req.IsPublic != nil {
		band.IsPublic = *req.IsPublic
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(band).Error; err != nil {
			return err
		}

		member := &models.Member{
			BandID: band.ID,
			UserID: userID,
			Role:   models.MemberRoleCaptain,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}

		return s.log.Append(tx, band.ID, member.ID, LogEntityBand, band.ID, band.Name, "created", nil)
	})
	if err != nil {
		return nil, err
	}

	return band, nil
}

// uniqueSlug derives a URL slug from the band name, suffixing a counter on
// collision.
func (s *BandService) uniqueSlug(name string) string {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "band"
	}
	if len(base) > 80 {
		base = base[:80]
	}

	slug := base
	for i := 2; ; i++ {
		var count int64
		s.db.Model(&models.Band{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// MyBands lists the bands the user belongs to, with the user's role in each.
type BandMembership struct {
	models.Band
	MyRole     string `json:"myRole"`
	MyMemberID uint   `json:"myMemberId"`
}

func (s *BandService) MyBands(userID uint) ([]BandMembership, error) {
	var memberships []models.Member
	if err := s.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []BandMembership{}, nil
	}

	bandIDs := make([]uint, 0, len(memberships))
	byBand := make(map[uint]models.Member, len(memberships))
	for _, m := range memberships {
		bandIDs = append(bandIDs, m.BandID)
		byBand[m.BandID] = m
	}

	var bands []models.Band
	if err := s.db.Where("id IN ?", bandIDs).Order("name").Find(&bands).Error; err != nil {
		return nil, err
	}

	out := make([]BandMembership, 0, len(bands))
	for _, b := range bands {
		m := byBand[b.ID]
		out = append(out, BandMembership{Band: b, MyRole: m.Role, MyMemberID: m.ID})
	}
	return out, nil
}

// Get returns a band by id.
func (s *BandService) Get(bandID uint) (*models.Band, error) {
	var band models.Band
	if err := s.db.First(&band, bandID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("band not found")
		}
		return nil, err
	}
	return &band, nil
}

type UpdateBandProfileRequest struct {
	Name             *string `json:"name" binding:"omitempty,min=2,max=200"`
	Description      *string `json:"description"`
	ShortDescription *string `json:"shortDescription" binding:"omitempty,max=500"`
	Tagline          *string `json:"tagline" binding:"omitempty,max=300"`
	FullDescription  *string `json:"fullDescription"`
	DecisionGuide    *string `json:"decisionGuidelines"`
	InclusionNote    *string `json:"inclusionStatement"`
	MembershipPolicy *string `json:"membershipPolicy"`
	City             *string `json:"city"`
	StateProvince    *string `json:"stateProvince"`
	PostalCode       *string `json:"postalCode"`
	Country          *string `json:"country"`
	IsPublic         *bool   `json:"isPublic"`
	NotifyWebhook    *string `json:"notifyWebhook"`
}

// UpdateProfile updates band profile fields. Captain only. Each changed
// field lands in the captain's log as a from/to pair.
func (s *BandService) UpdateProfile(bandID uint, actor *models.Member, req *UpdateBandProfileRequest) (*models.Band, error) {
	if !actor.IsCaptain() {
		return nil, response.NewForbidden("only a captain can update the band profile")
	}

	band, err := s.Get(bandID)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]Change)
	apply := func(field string, dst *string, src *string) {
		if src != nil && *src != *dst {
			changes[field] = Change{From: *dst, To: *src}
			*dst = *src
		}
	}

	apply("name", &band.Name, req.Name)
	apply("description", &band.Description, req.Description)
	apply("shortDescription", &band.ShortDescription, req.ShortDescription)
	apply("tagline", &band.Tagline, req.Tagline)
	apply("fullDescription", &band.FullDescription, req.FullDescription)
	apply("decisionGuidelines", &band.DecisionGuide, req.DecisionGuide)
	apply("inclusionStatement", &band.InclusionNote, req.InclusionNote)
	apply("membershipPolicy", &band.MembershipPolicy, req.MembershipPolicy)
	apply("city", &band.City, req.City)
	apply("stateProvince", &band.StateProvince, req.StateProvince)
	apply("postalCode", &band.PostalCode, req.PostalCode)
	apply("country", &band.Country, req.Country)
	apply("notifyWebhook", &band.NotifyWebhook, req.NotifyWebhook)
	if req.IsPublic != nil && *req.IsPublic != band.IsPublic {
		changes["isPublic"] = Change{From: band.IsPublic, To: *req.IsPublic}
		band.IsPublic = *req.IsPublic
	}

	if len(changes) == 0 {
		return band, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(band).Error; err != nil {
			return err
		}
		return s.log.Append(tx, band.ID, actor.ID, LogEntityBand, band.ID, band.Name, "updated", changes)
	})
	if err != nil {
		return nil, err
	}

	return band, nil
}

// Members lists a band's members with their user profiles.
func (s *BandService) Members(bandID uint) ([]models.Member, error) {
	var members []models.Member
	if err := s.db.Preload("User").Where("band_id = ?", bandID).
		Order("created_at").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

type AddMemberRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Role        string `json:"role" binding:"omitempty,oneof=captain member"`
	DisplayName string `json:"displayName" binding:"omitempty,max=100"`
}

// AddMember enrolls an existing user into the band by email. Captain only.
func (s *BandService) AddMember(bandID uint, actor *models.Member, req *AddMemberRequest) (*models.Member, error) {
	if !actor.IsCaptain() {
		return nil, response.NewForbidden("only a captain can add members")
	}

	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("no user with that email")
		}
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.MemberRoleMember
	}

	member := &models.Member{
		BandID:      bandID,
		UserID:      user.ID,
		Role:        role,
		DisplayName: req.DisplayName,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(member).Error; err != nil {
			if isDuplicateKeyErr(err) {
				return response.NewConflict("user is already a member of this band")
			}
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityMember, member.ID, user.Name(), "added", nil)
	})
	if err != nil {
		return nil, err
	}

	member.User = &user
	return member, nil
}

type UpdateMemberRequest struct {
	Role        *string `json:"role" binding:"omitempty,oneof=captain member"`
	DisplayName *string `json:"displayName" binding:"omitempty,max=100"`
}

// UpdateMember changes a member's role or display name. Captain only. A
// captain cannot demote themselves if they are the band's last captain.
func (s *BandService) UpdateMember(bandID uint, actor *models.Member, memberID uint, req *UpdateMemberRequest) (*models.Member, error) {
	if !actor.IsCaptain() {
		return nil, response.NewForbidden("only a captain can update members")
	}

	var member models.Member
	if err := s.db.Preload("User").Where("id = ? AND band_id = ?", memberID, bandID).First(&member).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("member not found")
		}
		return nil, err
	}

	changes := make(map[string]Change)
	if req.Role != nil && *req.Role != member.Role {
		if member.IsCaptain() && *req.Role != models.MemberRoleCaptain {
			var captains int64
			s.db.Model(&models.Member{}).
				Where("band_id = ? AND role = ?", bandID, models.MemberRoleCaptain).
				Count(&captains)
			if captains <= 1 {
				return nil, response.NewConflict("cannot demote the band's last captain")
			}
		}
		changes["role"] = Change{From: member.Role, To: *req.Role}
		member.Role = *req.Role
	}
	if req.DisplayName != nil && *req.DisplayName != member.DisplayName {
		changes["displayName"] = Change{From: member.DisplayName, To: *req.DisplayName}
		member.DisplayName = *req.DisplayName
	}

	if len(changes) == 0 {
		return &member, nil
	}

	name := member.DisplayName
	if name == "" && member.User != nil {
		name = member.User.Name()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&member).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityMember, member.ID, name, "updated", changes)
	})
	if err != nil {
		return nil, err
	}

	return &member, nil
}

// RemoveMember removes a member from the band. Captain only; the last
// captain cannot be removed.
func (s *BandService) RemoveMember(bandID uint, actor *models.Member, memberID uint) error {
	if !actor.IsCaptain() {
		return response.NewForbidden("only a captain can remove members")
	}

	var member models.Member
	if err := s.db.Preload("User").Where("id = ? AND band_id = ?", memberID, bandID).First(&member).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NewNotFound("member not found")
		}
		return err
	}

	if member.IsCaptain() {
		var captains int64
		s.db.Model(&models.Member{}).
			Where("band_id = ? AND role = ?", bandID, models.MemberRoleCaptain).
			Count(&captains)
		if captains <= 1 {
			return response.NewConflict("cannot remove the band's last captain")
		}
	}

	name := member.DisplayName
	if name == "" && member.User != nil {
		name = member.User.Name()
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&member).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityMember, member.ID, name, "removed", nil)
	})
}

// RequireMember resolves the caller's member identity in the band, or a
// forbidden error if they do not belong to it.
func (s *BandService) RequireMember(bandID, userID uint) (*models.Member, error) {
	var member models.Member
	if err := s.db.Where("band_id = ? AND user_id = ?", bandID, userID).First(&member).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewForbidden("you are not a member of this band")
		}
		return nil, err
	}
	return &member, nil
}

// RequireCaptain resolves the caller's member identity and checks captain
// authority.
func (s *BandService) RequireCaptain(bandID, userID uint) (*models.Member, error) {
	member, err := s.RequireMember(bandID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsCaptain() {
		return nil, response.NewForbidden("captain authority required")
	}
	return member, nil
}

// isDuplicateKeyErr reports whether err is a unique-constraint violation.
// Matched by message so it works across sqlite, mysql and postgres.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
