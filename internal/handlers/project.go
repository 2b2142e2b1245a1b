package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/internal/middleware"
	"github.com/huangang/taskline/internal/services"
	"github.com/huangang/taskline/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// List returns the caller's projects, most recently updated first
// GET /api/projects?skip=&limit=
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ListProjectsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), &req, middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, projects)
}

// GetByID returns a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"), middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, project)
}

// Create creates a new project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), &req, middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, project)
}

// Update updates a project
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), c.Param("id"), &req, middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, project)
}

// Delete deletes a project and its tasks
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), c.Param("id"), middleware.GetEmail(c)); err != nil {
		fail(c, err)
		return
	}

	response.Message(c, "project deleted successfully")
}
