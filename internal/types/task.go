package types

const (
	TaskStatusToDo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusCompleted  = "Completed"
	TaskStatusBlocked    = "Blocked"
)

var TaskStatuses = []string{
	TaskStatusToDo,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusBlocked,
}

func IsValidTaskStatus(status string) bool {
	for _, s := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}
