package service

import (
	"errors"

	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/repository"
	"github.com/artrate/artrate/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

// UserPatch carries a partial update; nil fields are left untouched.
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(limit, offset int) ([]models.User, int64, error) {
	return s.userRepo.ListUsers(limit, offset)
}

// CreateUser is the admin-facing creation path; any role may be assigned.
func (s *UserService) CreateUser(username, email string, role models.Role, firstName, lastName, bio string) (*models.User, error) {
	if err := validateSignupInput(username, email); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	existing, err = s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameAlreadyExists
	}

	user := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Bio:       bio,
		Role:      role,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User created by admin",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
		zap.String("role", string(role)),
	)

	return user, nil
}

func (s *UserService) GetUserByUsername(username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateUser applies an admin patch to the user addressed by username.
func (s *UserService) UpdateUser(username string, patch UserPatch) (*models.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	return s.applyPatch(user, patch)
}

func (s *UserService) DeleteUser(username string) error {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteUser(user); err != nil {
		logger.Log.Error("Failed to delete user",
			zap.String("username", username),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("User deleted", zap.String("username", username))
	return nil
}

func (s *UserService) GetSelf(userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateSelf is the /users/me patch path. A regular-role caller cannot
// change their own role: whatever value the patch carries is discarded and
// the stored role stays "user".
func (s *UserService) UpdateSelf(userID uuid.UUID, patch UserPatch) (*models.User, error) {
	user, err := s.GetSelf(userID)
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleUser && patch.Role != nil {
		logger.Log.Warn("Self-patch attempted role change, forcing role back",
			zap.String("user_id", userID.String()),
			zap.String("requested_role", string(*patch.Role)),
		)
		patch.Role = nil
	}

	return s.applyPatch(user, patch)
}

func (s *UserService) applyPatch(user *models.User, patch UserPatch) (*models.User, error) {
	if patch.Username != nil && *patch.Username != user.Username {
		existing, err := s.userRepo.GetUserByUsername(*patch.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUsernameAlreadyExists
		}
		if err := validateSignupInput(*patch.Username, user.Email); err != nil {
			return nil, err
		}
		user.Username = *patch.Username
	}

	if patch.Email != nil && *patch.Email != user.Email {
		existing, err := s.userRepo.GetUserByEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailAlreadyExists
		}
		if err := validateSignupInput(user.Username, *patch.Email); err != nil {
			return nil, err
		}
		user.Email = *patch.Email
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *patch.Role
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		logger.Log.Error("Failed to update user",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return user, nil
}
