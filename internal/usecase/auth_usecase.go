package usecase

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

type AuthUseCase struct {
	userRepo     repository.UserRepository
	tokenService TokenService
}

func NewAuthUseCase(userRepo repository.UserRepository, tokenService TokenService) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     userRepo,
		tokenService: tokenService,
	}
}

type RegisterInput struct {
	Name     string
	Username string
	Password string
	College  string
	Year     string
	Gender   string
}

type AuthResult struct {
	User  *entity.User
	Token string
}

var (
	allowedYears   = map[string]bool{"1st": true, "2nd": true, "3rd": true, "4th": true}
	allowedGenders = map[string]bool{"male": true, "female": true, "not_preferred": true}
)

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.ToLower(strings.TrimSpace(input.Username))

	if name == "" || username == "" || input.Password == "" {
		return nil, errors.BadRequest("Name, username and password are required", nil)
	}
	if strings.Contains(username, " ") {
		return nil, errors.BadRequest("Username cannot contain spaces", nil)
	}

	existing, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Username already taken")
	}

	// Unknown values degrade to empty rather than failing registration.
	year := input.Year
	if !allowedYears[year] {
		year = ""
	}
	gender := input.Gender
	if !allowedGenders[gender] {
		gender = ""
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	user := &entity.User{
		Name:         name,
		Username:     username,
		PasswordHash: string(hash),
		College:      strings.TrimSpace(input.College),
		Year:         year,
		Gender:       gender,
		Role:         "user",
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("Registered user %s (%s)", user.Username, user.ID)
	return user, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, errors.BadRequest("Username and password are required", nil)
	}

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.Unauthorized("Invalid credentials", nil)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid credentials", nil)
	}

	token, err := uc.tokenService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, errors.Internal("Failed to generate authentication token", err)
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}

func (uc *AuthUseCase) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}
	return user, nil
}
