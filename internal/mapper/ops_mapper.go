package mapper

import (
	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/model"
)

type OpsMapper struct{}

func NewOpsMapper() *OpsMapper {
	return &OpsMapper{}
}

func (m *OpsMapper) UserToEntity(u *model.User) *entity.User {
	e := &entity.User{
		Id:           u.Id,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		CompanyId:    u.CompanyId,
		IsActive:     u.IsActive,
	}
	if u.Company != nil {
		e.CompanyName = u.Company.Name
	}
	return e
}

func (m *OpsMapper) FacilityToEntity(f *model.Facility) *entity.Facility {
	return &entity.Facility{Id: f.Id, Name: f.Name, CompanyId: f.CompanyId}
}

func (m *OpsMapper) TaskDescriptionToEntity(t *model.TaskDescription) *entity.TaskDescription {
	return &entity.TaskDescription{Id: t.Id, Name: t.Name, CompanyId: t.CompanyId}
}

func (m *OpsMapper) SlotToEntity(s *model.SchedulerSlot) *entity.SchedulerSlot {
	return &entity.SchedulerSlot{Id: s.Id, Name: s.Name, CompanyId: s.CompanyId, IsActive: s.IsActive}
}

func (m *OpsMapper) TaskTransactionToEntity(t *model.TaskTransaction) *entity.TaskTransaction {
	e := &entity.TaskTransaction{
		Id:                t.Id,
		TaskDescriptionId: t.TaskDescriptionId,
		Status:            t.Status,
		Priority:          t.Priority,
		Remarks:           t.Remarks,
		AssignedUserId:    t.AssignedUserId,
		FacilityId:        t.FacilityId,
		CompanyId:         t.CompanyId,
		DateCreated:       t.DateCreated,
		DateUpdated:       t.DateUpdated,
	}
	if t.TaskDescription != nil {
		e.TaskName = t.TaskDescription.Name
	}
	return e
}

func (m *OpsMapper) TaskTransactionToModel(e *entity.TaskTransaction) *model.TaskTransaction {
	return &model.TaskTransaction{
		Id:                e.Id,
		TaskDescriptionId: e.TaskDescriptionId,
		Status:            e.Status,
		Priority:          e.Priority,
		Remarks:           e.Remarks,
		AssignedUserId:    e.AssignedUserId,
		FacilityId:        e.FacilityId,
		CompanyId:         e.CompanyId,
	}
}
