package services

import (
	"time"

	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/pkg/response"
	"gorm.io/gorm"
)

// TaskService manages tasks under a project. Every mutation that can change
// completion recomputes the parent project's progress in the same
// transaction.
type TaskService struct {
	db  *gorm.DB
	log *ActivityLogService
}

func NewTaskService(db *gorm.DB, log *ActivityLogService) *TaskService {
	return &TaskService{db: db, log: log}
}

// getProject checks the project exists and belongs to the band.
func (s *TaskService) getProject(bandID, projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ? AND band_id = ?", projectID, bandID).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

// getTask loads a task scoped to a band's project.
func (s *TaskService) getTask(bandID, projectID, taskID uint) (*models.Task, error) {
	if _, err := s.getProject(bandID, projectID); err != nil {
		return nil, err
	}

	var task models.Task
	if err := s.db.Preload("Assignee").Preload("Assignee.User").
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NewNotFound("task not found")
		}
		return nil, err
	}
	return &task, nil
}

type CreateTaskRequest struct {
	Title            string     `json:"title" binding:"required,min=2,max=300"`
	Description      string     `json:"description"`
	Priority         string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeMemberID *uint      `json:"assigneeMemberId"`
	DueDate          *time.Time `json:"dueDate"`
}

// Create adds a task to a project.
func (s *TaskService) Create(bandID uint, actor *models.Member, projectID uint, req *CreateTaskRequest) (*models.Task, error) {
	project, err := s.getProject(bandID, projectID)
	if err != nil {
		return nil, err
	}

	if req.AssigneeMemberID != nil {
		var count int64
		s.db.Model(&models.Member{}).Where("id = ? AND band_id = ?", *req.AssigneeMemberID, bandID).Count(&count)
		if count == 0 {
			return nil, response.NewValidation("assignee is not a member of this band")
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		ProjectID:        project.ID,
		Title:            req.Title,
		Description:      req.Description,
		Status:           models.TaskStatusNotStarted,
		Priority:         priority,
		AssigneeMemberID: req.AssigneeMemberID,
		DueDate:          req.DueDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		if err := recomputeProgress(tx, project.ID); err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityTask, task.ID, task.Title, "created", nil)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// List returns a project's tasks.
func (s *TaskService) List(bandID, projectID uint, status string) ([]models.Task, error) {
	if _, err := s.getProject(bandID, projectID); err != nil {
		return nil, err
	}

	query := s.db.Preload("Assignee").Preload("Assignee.User").Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []models.Task
	if err := query.Order("created_at").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get returns a single task.
func (s *TaskService) Get(bandID, projectID, taskID uint) (*models.Task, error) {
	return s.getTask(bandID, projectID, taskID)
}

type UpdateTaskRequest struct {
	Title            *string    `json:"title" binding:"omitempty,min=2,max=300"`
	Description      *string    `json:"description"`
	Status           *string    `json:"status" binding:"omitempty,oneof=not_started in_progress blocked completed"`
	Priority         *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeMemberID *uint      `json:"assigneeMemberId"`
	DueDate          *time.Time `json:"dueDate"`
}

// Update edits a task, logging changed fields and recomputing project
// progress when completion may have changed.
func (s *TaskService) Update(bandID uint, actor *models.Member, projectID, taskID uint, req *UpdateTaskRequest) (*models.Task, error) {
	task, err := s.getTask(bandID, projectID, taskID)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]Change)
	if req.Title != nil && *req.Title != task.Title {
		changes["title"] = Change{From: task.Title, To: *req.Title}
		task.Title = *req.Title
	}
	if req.Description != nil && *req.Description != task.Description {
		changes["description"] = Change{From: task.Description, To: *req.Description}
		task.Description = *req.Description
	}
	if req.Status != nil && *req.Status != task.Status {
		changes["status"] = Change{From: task.Status, To: *req.Status}
		task.Status = *req.Status
	}
	if req.Priority != nil && *req.Priority != task.Priority {
		changes["priority"] = Change{From: task.Priority, To: *req.Priority}
		task.Priority = *req.Priority
	}
	if req.AssigneeMemberID != nil {
		var count int64
		s.db.Model(&models.Member{}).Where("id = ? AND band_id = ?", *req.AssigneeMemberID, bandID).Count(&count)
		if count == 0 {
			return nil, response.NewValidation("assignee is not a member of this band")
		}
		old := task.AssigneeMemberID
		if old == nil || *old != *req.AssigneeMemberID {
			var from interface{}
			if old != nil {
				from = *old
			}
			changes["assigneeMemberId"] = Change{From: from, To: *req.AssigneeMemberID}
			task.AssigneeMemberID = req.AssigneeMemberID
		}
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if _, ok := changes["status"]; ok {
			if err := recomputeProgress(tx, projectID); err != nil {
				return err
			}
		}
		if len(changes) == 0 {
			return nil
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityTask, task.ID, task.Title, "updated", changes)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// Complete marks a task completed. Idempotent: completing a completed task
// is a no-op.
func (s *TaskService) Complete(bandID uint, actor *models.Member, projectID, taskID uint) (*models.Task, error) {
	task, err := s.getTask(bandID, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusCompleted {
		return task, nil
	}

	changes := map[string]Change{
		"status": {From: task.Status, To: models.TaskStatusCompleted},
	}
	task.Status = models.TaskStatusCompleted

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		if err := recomputeProgress(tx, projectID); err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityTask, task.ID, task.Title, "completed", changes)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes a task and recomputes project progress.
func (s *TaskService) Delete(bandID uint, actor *models.Member, projectID, taskID uint) error {
	task, err := s.getTask(bandID, projectID, taskID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("band_id = ? AND entity_type = ? AND entity_id = ?",
			bandID, models.CommentEntityTask, task.ID).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(task).Error; err != nil {
			return err
		}
		if err := recomputeProgress(tx, projectID); err != nil {
			return err
		}
		return s.log.Append(tx, bandID, actor.ID, LogEntityTask, task.ID, task.Title, "deleted", nil)
	})
}
