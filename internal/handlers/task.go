package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/internal/middleware"
	"github.com/huangang/taskline/internal/services"
	"github.com/huangang/taskline/pkg/response"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// List returns a project's tasks in creation order
// GET /api/projects/:id/tasks?task_type=&status=
func (h *TaskHandler) List(c *gin.Context) {
	var req services.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tasks, err := h.taskService.ListByQuery(c.Request.Context(), c.Param("id"), &req, middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, tasks)
}

// Create adds a task to a project
// POST /api/projects/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), c.Param("id"), &req, middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, task)
}

// GetByID returns one task
// GET /api/projects/:id/tasks/:task_id
func (h *TaskHandler) GetByID(c *gin.Context) {
	task, err := h.taskService.GetByID(c.Request.Context(), c.Param("id"), c.Param("task_id"), middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, task)
}

// Update applies a partial task update
// PUT /api/projects/:id/tasks/:task_id
func (h *TaskHandler) Update(c *gin.Context) {
	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), c.Param("id"), c.Param("task_id"), &req, middleware.GetEmail(c))
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, task)
}

// Delete removes one task
// DELETE /api/projects/:id/tasks/:task_id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.taskService.Delete(c.Request.Context(), c.Param("id"), c.Param("task_id"), middleware.GetEmail(c)); err != nil {
		fail(c, err)
		return
	}

	response.Message(c, "task deleted successfully")
}

// Timeline returns the grouped task view. An inaccessible project yields the
// empty shell, never an error.
// GET /api/projects/:id/timeline
func (h *TaskHandler) Timeline(c *gin.Context) {
	response.Success(c, h.taskService.Timeline(c.Request.Context(), c.Param("id"), middleware.GetEmail(c)))
}
