package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/models"
)

func TestNullable_DistinguishesAbsentFromNull(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"due_date": null, "estimated_hours": 2.5}`), &req))

	input := req.Input()
	assert.True(t, input.ClearDueDate)
	assert.Nil(t, input.DueDate)
	require.NotNil(t, input.EstimatedHours)
	assert.Equal(t, 2.5, *input.EstimatedHours)
	assert.False(t, input.ClearEstimate)
	assert.False(t, input.ClearAssignee)
	assert.Nil(t, input.AssigneeID)
}

func TestUpdateProjectRequest_ClearsMeeting(t *testing.T) {
	var req UpdateProjectRequest
	require.NoError(t, json.Unmarshal([]byte(`{"next_meeting_date": null, "end_date": "2024-07-01T09:00:00Z"}`), &req))

	input := req.Input()
	assert.True(t, input.ClearNextMeeting)
	assert.Nil(t, input.NextMeetingDate)
	assert.False(t, input.ClearEndDate)
	require.NotNil(t, input.EndDate)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), input.EndDate.UTC())
}

func TestRecurrenceRequest_Input(t *testing.T) {
	req := RecurrenceRequest{
		Frequency: models.RecurrenceWeekly,
		Weekdays:  []string{"Monday", "FRIDAY", "someday"},
		StartDate: time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC),
	}

	input, unknown := req.Input()

	assert.True(t, input.Monday)
	assert.True(t, input.Friday)
	assert.False(t, input.Sunday)
	assert.Equal(t, []string{"someday"}, unknown)
}

func TestToTaskDTO_DueFields(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	due := now.Add(72 * time.Hour)
	past := now.Add(-time.Hour)

	upcoming := ToTaskDTO(models.Task{Title: "t", Status: models.TaskStatusTodo, DueDate: &due}, now)
	assert.False(t, upcoming.IsOverdue)
	require.NotNil(t, upcoming.DaysUntilDue)
	assert.Equal(t, 3, *upcoming.DaysUntilDue)
	assert.NotNil(t, upcoming.Tags)

	late := ToTaskDTO(models.Task{Title: "t", Status: models.TaskStatusTodo, DueDate: &past}, now)
	assert.True(t, late.IsOverdue)

	done := ToTaskDTO(models.Task{Title: "t", Status: models.TaskStatusDone, DueDate: &past}, now)
	assert.False(t, done.IsOverdue)

	undated := ToTaskDTO(models.Task{Title: "t"}, now)
	assert.Nil(t, undated.DaysUntilDue)
}

func TestToProjectListResponse_TotalPages(t *testing.T) {
	now := time.Now()
	resp := ToProjectListResponse([]models.Project{{Name: "a"}}, 2, 10, 21, now)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Projects, 1)

	empty := ToProjectListResponse(nil, 1, 10, 0, now)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Projects)
}
