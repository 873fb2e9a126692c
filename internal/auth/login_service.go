package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nerith/photofold/database/models"
	"github.com/nerith/photofold/database/repo/accounts"
	cryptoutil "github.com/nerith/photofold/utils/crypto"
)

// ErrInvalidCredentials is returned on a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrWrongPassword is returned when a password confirmation fails on an
// authenticated operation.
var ErrWrongPassword = errors.New("current password is incorrect")

// LoginResult is a successful login. When RequiresTwoFactor is set only
// TempToken is populated; the session opens after VerifyTwoFactor.
type LoginResult struct {
	User               *models.User
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
	DeviceID           string

	RequiresTwoFactor bool
	TempToken         string
}

// RefreshResult is a successful token refresh.
type RefreshResult struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
	DeviceID           string
}

// LoginService authenticates admins and manages their sessions.
type LoginService struct {
	accountsRepo *accounts.Repository
	devicesRepo  *accounts.DeviceRepository
	jwtService   *JWTService
}

func NewLoginService(
	accountsRepo *accounts.Repository,
	devicesRepo *accounts.DeviceRepository,
	jwtService *JWTService,
) *LoginService {
	return &LoginService{
		accountsRepo: accountsRepo,
		devicesRepo:  devicesRepo,
		jwtService:   jwtService,
	}
}

// ValidateCredentials checks username and password. A missing user and a wrong
// password are indistinguishable to the caller.
func (s *LoginService) ValidateCredentials(username, password string) (*models.User, bool, error) {
	user, err := s.accountsRepo.GetUserByUsername(username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, false, nil
	}

	ok, err := cryptoutil.ComparePasswordAndHash(password, user.Password)
	if err != nil {
		return nil, false, fmt.Errorf("password comparison failed: %w", err)
	}

	return user, ok, nil
}

// Login authenticates and opens a new device session. Accounts with 2FA
// enabled get a temporary token instead; the session opens in VerifyTwoFactor.
func (s *LoginService) Login(username, password string) (*LoginResult, error) {
	user, valid, err := s.ValidateCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if user.TOTPEnabled && user.TOTPSecret != nil {
		tempToken, err := s.jwtService.GenerateTempTwoFactorToken(user.ID)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			User:              user,
			RequiresTwoFactor: true,
			TempToken:         tempToken,
		}, nil
	}

	return s.openSession(user)
}

// openSession issues the token pair and records the device.
func (s *LoginService) openSession(user *models.User) (*LoginResult, error) {
	tokenPair, err := s.jwtService.GenerateTokens(user.Username, user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	deviceID := uuid.New().String()
	if err := s.devicesRepo.CreateLoginDevice(user.ID, deviceID, tokenPair.RefreshToken, tokenPair.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("failed to store device token: %w", err)
	}

	return &LoginResult{
		User:               user,
		AccessToken:        tokenPair.AccessToken,
		AccessTokenExpiry:  tokenPair.AccessTokenExpiry,
		RefreshToken:       tokenPair.RefreshToken,
		RefreshTokenExpiry: tokenPair.RefreshTokenExpiry,
		DeviceID:           deviceID,
	}, nil
}

// requireUser loads a user row or fails with ErrInvalidCredentials.
func (s *LoginService) requireUser(userID uint) (*models.User, error) {
	user, err := s.accountsRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// checkPassword verifies a password confirmation for the given user.
func (s *LoginService) checkPassword(user *models.User, password string) error {
	ok, err := cryptoutil.ComparePasswordAndHash(password, user.Password)
	if err != nil {
		return fmt.Errorf("password comparison failed: %w", err)
	}
	if !ok {
		return ErrWrongPassword
	}
	return nil
}

// ChangePassword replaces the stored hash after confirming the current one.
// Existing device sessions stay valid.
func (s *LoginService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.requireUser(userID)
	if err != nil {
		return err
	}
	if err := s.checkPassword(user, currentPassword); err != nil {
		return err
	}

	hash, err := cryptoutil.GenerateFromPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	return s.accountsRepo.UpdatePassword(user.ID, hash)
}

// RefreshToken rotates the refresh token and issues a new access token.
func (s *LoginService) RefreshToken(refreshToken, deviceID string) (*RefreshResult, error) {
	device, err := s.devicesRepo.GetDeviceByRefreshTokenAndDeviceID(refreshToken, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	if device == nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.accountsRepo.GetUserByID(device.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	newRefreshToken, newRefreshTokenExpiry, err := s.jwtService.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := s.devicesRepo.RotateRefreshToken(user.ID, device.DeviceID, newRefreshToken, newRefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("failed to update device token: %w", err)
	}

	accessToken, accessTokenExpiry, err := s.jwtService.GenerateAccessToken(user.Username, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:        accessToken,
		AccessTokenExpiry:  accessTokenExpiry,
		RefreshToken:       newRefreshToken,
		RefreshTokenExpiry: newRefreshTokenExpiry,
		DeviceID:           deviceID,
	}, nil
}

// Logout drops the device session.
func (s *LoginService) Logout(deviceID string) error {
	return s.devicesRepo.DeleteByDeviceID(deviceID)
}
