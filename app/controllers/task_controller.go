package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/km-arc/armature/app/services"
	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/httpkit/validation"
	"github.com/km-arc/armature/framework/metadata"
)

// TaskController serves the task API.
type TaskController struct {
	tasks *services.TaskService
}

func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

func (tc *TaskController) Index(c *dispatch.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"data": tc.tasks.List()})
}

func (tc *TaskController) Show(c *dispatch.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return dispatch.NewHTTPError(http.StatusBadRequest, "bad_request", "task id must be numeric")
	}
	t, ok := tc.tasks.Find(id)
	if !ok {
		return dispatch.ErrNotFound("task not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"data": t})
}

func (tc *TaskController) Store(c *dispatch.Context) error {
	t := tc.tasks.Create(c.BodyStrings()["name"])
	return c.JSON(http.StatusCreated, map[string]any{"data": t})
}

func (tc *TaskController) Complete(c *dispatch.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return dispatch.NewHTTPError(http.StatusBadRequest, "bad_request", "task id must be numeric")
	}
	t, ok := tc.tasks.Complete(id)
	if !ok {
		return dispatch.ErrNotFound("task not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"data": t})
}

func (tc *TaskController) Destroy(c *dispatch.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return dispatch.NewHTTPError(http.StatusBadRequest, "bad_request", "task id must be numeric")
	}
	if !tc.tasks.Delete(id) {
		return dispatch.ErrNotFound("task not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeclareTasks registers the controller and its route table. Reads are
// cached briefly, writes are validated, and destructive operations need
// an authenticated admin.
func DeclareTasks(r *metadata.Registry) {
	metadata.Controller("TaskController", "/api/v1/tasks").
		Constructor(NewTaskController).
		Use(metadata.RateLimit(25, 50)).
		Get("", (*TaskController).Index, metadata.Cache(30*time.Second)).
		Get("/:id", (*TaskController).Show).
		Post("", (*TaskController).Store, metadata.Validate(validation.Rules{
			"name": "required|min:2|max:120",
		})).
		Patch("/:id/complete", (*TaskController).Complete, metadata.Auth()).
		Delete("/:id", (*TaskController).Destroy, metadata.Auth("admin")).
		Register(r)
}
