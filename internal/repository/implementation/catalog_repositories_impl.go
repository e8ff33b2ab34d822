package implementation

import (
	"context"

	"ai-facilityops-be/internal/entity"
	"ai-facilityops-be/internal/mapper"
	"ai-facilityops-be/internal/model"
	"ai-facilityops-be/internal/repository/contract"
	"ai-facilityops-be/internal/repository/specification"

	"gorm.io/gorm"
)

type FacilityRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OpsMapper
}

func NewFacilityRepository(db *gorm.DB) contract.FacilityRepository {
	return &FacilityRepositoryImpl{db: db, mapper: mapper.NewOpsMapper()}
}

func (r *FacilityRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Facility, error) {
	var models []*model.Facility
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Facility, len(models))
	for i, m := range models {
		entities[i] = r.mapper.FacilityToEntity(m)
	}
	return entities, nil
}

type TaskDescriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OpsMapper
}

func NewTaskDescriptionRepository(db *gorm.DB) contract.TaskDescriptionRepository {
	return &TaskDescriptionRepositoryImpl{db: db, mapper: mapper.NewOpsMapper()}
}

func (r *TaskDescriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TaskDescription, error) {
	var models []*model.TaskDescription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.TaskDescription, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TaskDescriptionToEntity(m)
	}
	return entities, nil
}

type SchedulerSlotRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OpsMapper
}

func NewSchedulerSlotRepository(db *gorm.DB) contract.SchedulerSlotRepository {
	return &SchedulerSlotRepositoryImpl{db: db, mapper: mapper.NewOpsMapper()}
}

func (r *SchedulerSlotRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SchedulerSlot, error) {
	var models []*model.SchedulerSlot
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.SchedulerSlot, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SlotToEntity(m)
	}
	return entities, nil
}
