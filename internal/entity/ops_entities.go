package entity

import "time"

type Company struct {
	Id   int64
	Name string
}

type User struct {
	Id           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	CompanyId    int64
	IsActive     bool
	CompanyName  string // joined projection, not a column on users
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type Facility struct {
	Id        int64
	Name      string
	CompanyId int64
}

type TaskDescription struct {
	Id        int64
	Name      string
	CompanyId int64
}

type SchedulerSlot struct {
	Id        int64
	Name      string
	CompanyId int64
	IsActive  bool
}

type TaskTransaction struct {
	Id                int64
	TaskDescriptionId int64
	TaskName          string // joined from task_descriptions
	Status            int
	Priority          int
	Remarks           string
	AssignedUserId    int64
	FacilityId        int64
	CompanyId         int64
	DateCreated       time.Time
	DateUpdated       time.Time
}

// Task status codes shared by workflows and the search index.
const (
	TaskStatusPending    = 0
	TaskStatusInProgress = 1
	TaskStatusCompleted  = 2
)

func TaskStatusLabel(status int) string {
	switch status {
	case TaskStatusPending:
		return "Pending"
	case TaskStatusInProgress:
		return "In Progress"
	case TaskStatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

func TaskStatusCode(label string) (int, bool) {
	switch label {
	case "Pending":
		return TaskStatusPending, true
	case "In Progress":
		return TaskStatusInProgress, true
	case "Completed":
		return TaskStatusCompleted, true
	default:
		return 0, false
	}
}
