package task

import (
	"strconv"
	"strings"
	"time"

	"github.com/collabtask/collabtask/internal/domain"
)

const keyPrefix = "collabtask:"

func taskKey(id int64) string {
	return keyPrefix + "task:" + strconv.FormatInt(id, 10)
}

func userAssignedKey(userID int64) string {
	return keyPrefix + "user:" + strconv.FormatInt(userID, 10) + ":assigned"
}

func userCreatedKey(userID int64) string {
	return keyPrefix + "user:" + strconv.FormatInt(userID, 10) + ":created"
}

func userProjectsKey(userID int64) string {
	return keyPrefix + "user:" + strconv.FormatInt(userID, 10) + ":projects"
}

func projectTasksKey(projectID int64) string {
	return keyPrefix + "project:" + strconv.FormatInt(projectID, 10) + ":tasks"
}

// parseTask converts a flat hash into a task snapshot. Unparseable fields
// degrade to their zero values; a zero date means the field is unset.
func parseTask(id int64, h map[string]string) domain.Task {
	t := domain.Task{
		ID:          id,
		Title:       h["title"],
		Description: h["description"],
		Status:      h["status"],
		Priority:    h["priority"],
		ProjectID:   parseInt(h["project_id"]),
		AssigneeID:  parseInt(h["assignee_id"]),
		CreatorID:   parseInt(h["creator_id"]),
		CreatedAt:   parseTime(h["created_at"]),
		DueDate:     parseTime(h["due_date"]),
	}
	if tags := h["tags"]; tags != "" {
		t.Tags = strings.Split(tags, ",")
	}
	return t
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
