package service

import (
	"context"
	"errors"
	"time"

	"ai-facilityops-be/internal/config"
	"ai-facilityops-be/internal/dto"
	"ai-facilityops-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        *config.AuthConfig
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, cfg *config.AuthConfig) IAuthService {
	return &authService{uowFactory: uowFactory, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"user_id":    user.Id,
		"role":       user.Role,
		"company_id": user.CompanyId,
		"exp":        time.Now().Add(time.Duration(s.cfg.TokenExpireMinutes) * time.Minute).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JwtSecret))
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		User: dto.LoginUser{
			Id:          user.Id,
			Email:       user.Email,
			Name:        user.FullName(),
			Role:        user.Role,
			CompanyId:   user.CompanyId,
			CompanyName: user.CompanyName,
		},
	}, nil
}
