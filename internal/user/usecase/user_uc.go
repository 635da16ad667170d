package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/Abdurahmanit/realestate-listings/internal/user/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

type UserUsecase struct {
	repo   domain.UserRepository
	cost   int
	logger *logger.Logger
}

func NewUserUsecase(repo domain.UserRepository, log *logger.Logger) *UserUsecase {
	return &UserUsecase{repo: repo, cost: bcrypt.DefaultCost, logger: log.Named("UserUsecase")}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (uc *UserUsecase) WithHashCost(cost int) *UserUsecase {
	uc.cost = cost
	return uc
}

func (uc *UserUsecase) SignUp(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var problems []string
	if username == "" {
		problems = append(problems, "username is required")
	}
	if len(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		uc.logger.Error("failed to hash password", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			uc.logger.Info("sign-up with taken username", zap.String("username", username))
		} else {
			uc.logger.Error("failed to create user", zap.String("username", username), zap.Error(err))
		}
		return nil, err
	}
	uc.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("username", username))
	return user, nil
}

func (uc *UserUsecase) SignIn(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := uc.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		uc.logger.Error("failed to load user", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.logger.Info("failed sign-in", zap.String("username", username))
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// EmailByID returns the user's email, empty when none was given at sign-up.
func (uc *UserUsecase) EmailByID(ctx context.Context, id string) (string, error) {
	user, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
