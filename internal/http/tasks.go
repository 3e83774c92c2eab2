package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/lendingdesk/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue              TaskQueue
	auditRetentionDays int
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, auditRetentionDays int) *TasksController {
	return &TasksController{queue: queue, auditRetentionDays: auditRetentionDays}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "overdue_scan",
			Description: "Record the open issues that are past their due date",
			Queue:       tasks.OverdueScanTask{}.Config().Name,
		},
		{
			Type:        "cleanup_audit_events",
			Description: "Delete audit events older than the retention period",
			Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var task backlite.Task
	switch taskType {
	case "overdue_scan":
		task = tasks.OverdueScanTask{}
	case "cleanup_audit_events":
		task = tasks.CleanupAuditEventsTask{RetentionDays: tc.auditRetentionDays}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	id, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
