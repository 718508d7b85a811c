package handlers

import (
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	bands    *services.BandService
	projects *services.ProjectService
	tasks    *services.TaskService
}

func NewProjectHandler(bands *services.BandService, projects *services.ProjectService, tasks *services.TaskService) *ProjectHandler {
	return &ProjectHandler{bands: bands, projects: projects, tasks: tasks}
}

// Create creates a project from an approved proposal
// POST /api/bands/:bandId/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projects.Create(bandID, actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// List lists a band's projects
// GET /api/bands/:bandId/projects?status=active
func (h *ProjectHandler) List(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}

	projects, err := h.projects.List(bandID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// Get returns one project
// GET /api/bands/:bandId/projects/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.projects.Get(bandID, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Update edits a project
// PUT /api/bands/:bandId/projects/:projectId
func (h *ProjectHandler) Update(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projects.Update(bandID, actor, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Delete removes a project and its tasks; creator or captain
// DELETE /api/bands/:bandId/projects/:projectId
func (h *ProjectHandler) Delete(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projects.Delete(bandID, actor, projectID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// CreateTask adds a task to a project
// POST /api/bands/:bandId/projects/:projectId/tasks
func (h *ProjectHandler) CreateTask(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.tasks.Create(bandID, actor, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task)
}

// ListTasks lists a project's tasks
// GET /api/bands/:bandId/projects/:projectId/tasks?status=in_progress
func (h *ProjectHandler) ListTasks(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}

	tasks, err := h.tasks.List(bandID, projectID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, tasks)
}

// GetTask returns one task
// GET /api/bands/:bandId/projects/:projectId/tasks/:taskId
func (h *ProjectHandler) GetTask(c *gin.Context) {
	bandID, _, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}
	taskID, ok := paramUint(c, "taskId")
	if !ok {
		response.BadRequest(c, "invalid task id")
		return
	}

	task, err := h.tasks.Get(bandID, projectID, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// UpdateTask edits a task
// PUT /api/bands/:bandId/projects/:projectId/tasks/:taskId
func (h *ProjectHandler) UpdateTask(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}
	taskID, ok := paramUint(c, "taskId")
	if !ok {
		response.BadRequest(c, "invalid task id")
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.tasks.Update(bandID, actor, projectID, taskID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// CompleteTask marks a task completed
// POST /api/bands/:bandId/projects/:projectId/tasks/:taskId/complete
func (h *ProjectHandler) CompleteTask(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}
	taskID, ok := paramUint(c, "taskId")
	if !ok {
		response.BadRequest(c, "invalid task id")
		return
	}

	task, err := h.tasks.Complete(bandID, actor, projectID, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// DeleteTask removes a task
// DELETE /api/bands/:bandId/projects/:projectId/tasks/:taskId
func (h *ProjectHandler) DeleteTask(c *gin.Context) {
	bandID, actor, ok := requireBandMember(c, h.bands)
	if !ok {
		return
	}
	projectID, ok := paramUint(c, "projectId")
	if !ok {
		response.BadRequest(c, "invalid project id")
		return
	}
	taskID, ok := paramUint(c, "taskId")
	if !ok {
		response.BadRequest(c, "invalid task id")
		return
	}

	if err := h.tasks.Delete(bandID, actor, projectID, taskID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
