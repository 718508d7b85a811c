package services

import (
	"math"
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// ProjectService manages projects spawned from approved proposals and keeps
// their derived progress columns exact.
type ProjectService struct {
	db        *gorm.DB
	log       *ActivityLogService
	proposals *ProposalService
}

func NewProjectService(db *gorm.DB, log *ActivityLogService, proposals *ProposalService) *ProjectService {
	return &ProjectService{db: db, log: log, proposals: proposals}
}

type CreateProjectRequest struct {
	ProposalID  uint       `json:"proposalId" binding:"required"`
	Name        string     `json:"name" binding:"required,min=2,max=300"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	TargetDate  *time.Time `json:"targetDate"`
}

// Create creates a project from an approved proposal. Creating the first
// project marks the proposal executed; later projects may still reference
// it.
func (s *ProjectService) Create(bandID uint, actor *models.Member, req *CreateProjectRequest) (*models.Project, error) {
	var proposal models.Proposal
	if err := s.db.Where("id = ? AND band_id = ?", req.ProposalID, bandID).First(&proposal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("proposal not found")
		}
		return nil, err
	}

	if proposal.State != models.ProposalStateApproved && proposal.State != models.ProposalStateExecuted {
		return nil, response.NewInvalidState("projects can only be created from an approved proposal")
	}

	project := &models.Project{
		BandID:          bandID,
		ProposalID:      proposal.ID,
		CreatorMemberID: actor.ID,
		Name:            req.Name,
		Description:     req.Description,
		Status:          models.ProjectStatusActive,
		StartDate:       req.StartDate,
		TargetDate:      req.TargetDate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		if proposal.State == models.ProposalStateApproved {
			if err := s.proposals.MarkExecuted(tx, &proposal, actor); err != nil {
				return err
			}
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityProject, project.ID, project.Name, "created", nil)
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// List returns a band's projects, optionally filtered by status.
func (s *ProjectService) List(bandID uint, status string) ([]models.Project, error) {
	query := s.db.Where("band_id = ?", bandID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Get returns a project scoped to the band.
func (s *ProjectService) Get(bandID, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ? AND band_id = ?", projectID, bandID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

type UpdateProjectRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=2,max=300"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" binding:"omitempty,oneof=active on_hold completed"`
	StartDate   *time.Time `json:"startDate"`
	TargetDate  *time.Time `json:"targetDate"`
}

// Update edits a project, logging changed fields.
func (s *ProjectService) Update(bandID uint, actor *models.Member, projectID uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.Get(bandID, projectID)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]Change)
	if req.Name != nil && *req.Name != project.Name {
		changes["name"] = Change{From: project.Name, To: *req.Name}
		project.Name = *req.Name
	}
	if req.Description != nil && *req.Description != project.Description {
		changes["description"] = Change{From: project.Description, To: *req.Description}
		project.Description = *req.Description
	}
	if req.Status != nil && *req.Status != project.Status {
		changes["status"] = Change{From: project.Status, To: *req.Status}
		project.Status = *req.Status
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.TargetDate != nil {
		project.TargetDate = req.TargetDate
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(project).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityProject, project.ID, project.Name, "updated", changes)
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// Delete removes a project and its tasks. Captain or the project's creator.
func (s *ProjectService) Delete(bandID uint, actor *models.Member, projectID uint) error {
	project, err := s.Get(bandID, projectID)
	if err != nil {
		return err
	}

	if project.CreatorMemberID != actor.ID && !actor.IsCaptain() {
		return response.NewForbidden("only the project's creator or a captain can delete it")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(project).Error; err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityProject, project.ID, project.Name, "deleted", nil)
	})
}

// recomputeProgress recalculates the project's task counters and progress
// percentage from the task table. Must run inside the same transaction as
// the task mutation that invalidated them.
func recomputeProgress(tx *gorm.DB, projectID uint) error {
	var total, completed int64
	if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Task{}).
		Where("project_id = ? AND status = ?", projectID, models.TaskStatusCompleted).
		Count(&completed).Error; err != nil {
		return err
	}

	progress := 0
	if total > 0 {
		progress = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return tx.Model(&models.Project{}).Where("id = ?", projectID).Updates(map[string]interface{}{
		"total_tasks":         total,
		"completed_tasks":     completed,
		"progress_percentage": progress,
	}).Error
}
