package service

import (
	"context"
	"fmt"

	"ai-facilityops-be/internal/repository/specification"
	"ai-facilityops-be/internal/repository/unitofwork"
)

// UserContext is the verified identity injected into every turn. All tenant
// scoping downstream derives from CompanyId here, never from client input.
type UserContext struct {
	UserId      int64
	Name        string
	Role        string
	CompanyId   int64
	CompanyName string
}

type IUserContextService interface {
	Resolve(ctx context.Context, userId int64) (*UserContext, error)
}

type userContextService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUserContextService(uowFactory unitofwork.RepositoryFactory) IUserContextService {
	return &userContextService{uowFactory: uowFactory}
}

func (s *userContextService) Resolve(ctx context.Context, userId int64) (*UserContext, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userId, err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("user %d not found or inactive", userId)
	}

	return &UserContext{
		UserId:      user.Id,
		Name:        user.FullName(),
		Role:        user.Role,
		CompanyId:   user.CompanyId,
		CompanyName: user.CompanyName,
	}, nil
}
