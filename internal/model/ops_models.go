package model

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	Id        int64          `gorm:"primaryKey;autoIncrement"`
	Name      string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Company) TableName() string {
	return "companies"
}

type User struct {
	Id           int64          `gorm:"primaryKey;autoIncrement"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"type:text;not null"`
	FirstName    string         `gorm:"type:text;not null"`
	LastName     string         `gorm:"type:text"`
	Role         string         `gorm:"type:text;not null;default:user"`
	CompanyId    int64          `gorm:"not null;index"` // Tenant scope for data isolation
	IsActive     bool           `gorm:"not null;default:true"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	Company *Company `gorm:"foreignKey:CompanyId"`
}

func (User) TableName() string {
	return "users"
}

type Facility struct {
	Id        int64          `gorm:"primaryKey;autoIncrement"`
	Name      string         `gorm:"type:text;not null"`
	CompanyId int64          `gorm:"not null;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Facility) TableName() string {
	return "facilities"
}

type TaskDescription struct {
	Id        int64          `gorm:"primaryKey;autoIncrement"`
	Name      string         `gorm:"type:text;not null"`
	CompanyId int64          `gorm:"not null;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (TaskDescription) TableName() string {
	return "task_descriptions"
}

type SchedulerSlot struct {
	Id        int64          `gorm:"primaryKey;autoIncrement"`
	Name      string         `gorm:"type:text;not null"`
	CompanyId int64          `gorm:"not null;index"`
	IsActive  bool           `gorm:"not null;default:true"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (SchedulerSlot) TableName() string {
	return "scheduler_slots"
}

type TaskTransaction struct {
	Id                int64     `gorm:"primaryKey;autoIncrement"`
	TaskDescriptionId int64     `gorm:"index"`
	Status            int       `gorm:"not null;default:0"` // 0 pending, 1 in progress, 2 completed
	Priority          int       `gorm:"not null;default:1"`
	Remarks           string    `gorm:"type:text"`
	AssignedUserId    int64     `gorm:"index"`
	FacilityId        int64     `gorm:"index"`
	CompanyId         int64     `gorm:"not null;index"`
	DateCreated       time.Time `gorm:"autoCreateTime"`
	DateUpdated       time.Time `gorm:"autoUpdateTime"`

	TaskDescription *TaskDescription `gorm:"foreignKey:TaskDescriptionId"`
}

func (TaskTransaction) TableName() string {
	return "task_transactions"
}
