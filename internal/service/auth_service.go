package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/artrate/artrate/internal/mailer"
	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/repository"
	"github.com/artrate/artrate/internal/utils"
	"github.com/artrate/artrate/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrUsernameReserved      = errors.New("username is reserved")
	ErrInvalidCredentials    = errors.New("invalid username or confirmation code")
	ErrConfirmationNotSent   = errors.New("failed to send confirmation email")

	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

// reservedUsernames collide with routes or privileged names and are
// rejected case-insensitively at signup.
var reservedUsernames = map[string]struct{}{
	"me":     {},
	"admin":  {},
	"signup": {},
	"token":  {},
}

type AuthService struct {
	userRepo        *repository.UserRepository
	sender          mailer.Sender
	jwtSecret       string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, sender mailer.Sender, jwtSecret string, accessTokenTTL, refreshTokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		sender:          sender,
		jwtSecret:       jwtSecret,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// Signup registers a new identity and mails it a single-use confirmation
// code. The code is stored only as an Argon2id hash. A failed send is a
// failed signup: the half-created row is removed and the error returned.
//
// Signing up again with the matching username and email of an existing
// account reissues a fresh code for it instead of failing. That is how an
// account whose code was lost or never issued (the seeded admin) gets one.
func (s *AuthService) Signup(username, email string) (*models.User, error) {
	logger.Log.Debug("Processing signup",
		zap.String("username", username),
		zap.String("email", email),
	)

	if err := validateSignupInput(username, email); err != nil {
		logger.Log.Warn("Signup validation failed",
			zap.String("username", username),
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	byUsername, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to check username existence", zap.Error(err))
		return nil, err
	}
	if byUsername != nil && byUsername.Email == email {
		return s.reissueCode(byUsername)
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to check email existence", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}
	if byUsername != nil {
		return nil, ErrUsernameAlreadyExists
	}

	code, err := utils.GenerateConfirmationCode()
	if err != nil {
		return nil, err
	}
	codeHash, err := utils.HashCode(code)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:               uuid.New(),
		Username:         username,
		Email:            email,
		Role:             models.RoleUser,
		ConfirmationHash: codeHash,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user in database",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, err
	}

	subject := "Your confirmation code"
	body := fmt.Sprintf("Confirmation code: %s", code)
	if err := s.sender.Send(email, subject, body); err != nil {
		logger.Log.Error("Failed to send confirmation email",
			zap.String("username", username),
			zap.String("email", email),
			zap.Error(err),
		)
		// The account is unreachable without its code; roll it back so
		// the signup can be retried.
		if delErr := s.userRepo.HardDeleteUser(user); delErr != nil {
			logger.Log.Error("Failed to roll back user after send failure",
				zap.String("username", username),
				zap.Error(delErr),
			)
		}
		return nil, ErrConfirmationNotSent
	}

	logger.Log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
	)

	return user, nil
}

// reissueCode mails a fresh confirmation code to an existing account and
// replaces the stored hash. Any previously issued code stops working.
func (s *AuthService) reissueCode(user *models.User) (*models.User, error) {
	code, err := utils.GenerateConfirmationCode()
	if err != nil {
		return nil, err
	}
	codeHash, err := utils.HashCode(code)
	if err != nil {
		return nil, err
	}

	user.ConfirmationHash = codeHash
	if err := s.userRepo.UpdateUser(user); err != nil {
		logger.Log.Error("Failed to store reissued code",
			zap.String("username", user.Username),
			zap.Error(err),
		)
		return nil, err
	}

	subject := "Your confirmation code"
	body := fmt.Sprintf("Confirmation code: %s", code)
	if err := s.sender.Send(user.Email, subject, body); err != nil {
		logger.Log.Error("Failed to send reissued confirmation email",
			zap.String("username", user.Username),
			zap.String("email", user.Email),
			zap.Error(err),
		)
		return nil, ErrConfirmationNotSent
	}

	logger.Log.Info("Confirmation code reissued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return user, nil
}

// IssueTokens exchanges a confirmation code for an access/refresh pair.
// Unknown usernames and bad codes are indistinguishable to the caller to
// avoid username enumeration. A code verifies at most once.
func (s *AuthService) IssueTokens(username, code string) (access, refresh string, err error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Log.Error("Failed to get user by username", zap.Error(err))
		return "", "", err
	}
	if user == nil || user.ConfirmationHash == "" {
		logger.Log.Warn("Token exchange rejected",
			zap.String("username", username),
		)
		return "", "", ErrInvalidCredentials
	}

	valid, err := utils.VerifyCode(code, user.ConfirmationHash)
	if err != nil || !valid {
		logger.Log.Warn("Confirmation code verification failed",
			zap.String("username", username),
		)
		return "", "", ErrInvalidCredentials
	}

	// Single use: burn the code before handing out tokens.
	user.ConfirmationHash = ""
	if err := s.userRepo.UpdateUser(user); err != nil {
		logger.Log.Error("Failed to clear confirmation code", zap.Error(err))
		return "", "", err
	}

	access, refresh, err = utils.GenerateTokenPair(user, s.jwtSecret, s.accessTokenTTL, s.refreshTokenTTL)
	if err != nil {
		logger.Log.Error("Failed to generate tokens",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return "", "", err
	}

	logger.Log.Info("Tokens issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return access, refresh, nil
}

func validateSignupInput(username, email string) error {
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > 150 {
		return errors.New("username must be at most 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username may only contain letters, digits and @.+-_")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return ErrUsernameReserved
	}

	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	if len(email) > 254 {
		return errors.New("email too long")
	}

	return nil
}
