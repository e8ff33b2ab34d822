package specification

import "gorm.io/gorm"

type AssignedToUser struct {
	UserID int64
}

func (s AssignedToUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("assigned_user_id = ?", s.UserID)
}

type StatusNot struct {
	Status int
}

func (s StatusNot) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status != ?", s.Status)
}

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}
