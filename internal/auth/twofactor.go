package auth

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Two-factor errors. Handlers map these to status codes.
var (
	ErrTwoFactorNotConfigured = errors.New("two-factor authentication is not set up")
	ErrTwoFactorNotEnabled    = errors.New("two-factor authentication is not enabled")
	ErrInvalidTwoFactorCode   = errors.New("invalid verification code")
	ErrInvalidTwoFactorToken  = errors.New("invalid or expired two-factor session")
)

const (
	totpIssuer      = "photofold"
	backupCodeCount = 10
)

// TwoFactorSetup is handed to the admin exactly once; only code digests are
// kept server-side.
type TwoFactorSetup struct {
	Secret      string
	OTPAuthURL  string
	QRCode      string // PNG data URL for authenticator apps
	BackupCodes []string
}

// SetupTwoFactor provisions a fresh TOTP secret and backup codes. The secret
// is stored immediately but stays inactive until EnableTwoFactor verifies a
// code from the authenticator.
func (s *LoginService) SetupTwoFactor(userID uint) (*TwoFactorSetup, error) {
	user, err := s.requireUser(userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	codes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}
	encoded, err := encodeBackupCodes(codes)
	if err != nil {
		return nil, err
	}

	secret := key.Secret()
	if err := s.accountsRepo.UpdateTwoFactor(user.ID, &secret, false, &encoded); err != nil {
		return nil, fmt.Errorf("failed to store 2fa setup: %w", err)
	}

	qrCode, err := qrCodeDataURL(key)
	if err != nil {
		return nil, err
	}

	return &TwoFactorSetup{
		Secret:      secret,
		OTPAuthURL:  key.URL(),
		QRCode:      qrCode,
		BackupCodes: codes,
	}, nil
}

// EnableTwoFactor activates a previously provisioned secret. Requires the
// current TOTP code and a password confirmation.
func (s *LoginService) EnableTwoFactor(userID uint, code, password string) error {
	user, err := s.requireUser(userID)
	if err != nil {
		return err
	}
	if err := s.checkPassword(user, password); err != nil {
		return err
	}
	if user.TOTPSecret == nil {
		return ErrTwoFactorNotConfigured
	}
	if !totp.Validate(normalizeTwoFactorCode(code), *user.TOTPSecret) {
		return ErrInvalidTwoFactorCode
	}

	return s.accountsRepo.UpdateTwoFactor(user.ID, user.TOTPSecret, true, user.BackupCodes)
}

// DisableTwoFactor turns 2FA off and clears the stored secrets. Accepts a
// TOTP code or a backup code, plus a password confirmation.
func (s *LoginService) DisableTwoFactor(userID uint, code, password string) error {
	user, err := s.requireUser(userID)
	if err != nil {
		return err
	}
	if err := s.checkPassword(user, password); err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return ErrTwoFactorNotEnabled
	}

	code = normalizeTwoFactorCode(code)
	valid := false
	if user.TOTPSecret != nil && isTOTPCode(code) {
		valid = totp.Validate(code, *user.TOTPSecret)
	}
	if !valid {
		ok, _, err := consumeBackupCode(user.BackupCodes, code)
		if err != nil {
			return err
		}
		valid = ok
	}
	if !valid {
		return ErrInvalidTwoFactorCode
	}

	return s.accountsRepo.UpdateTwoFactor(user.ID, nil, false, nil)
}

// VerifyTwoFactor completes a login that was answered with a temp token.
// A used backup code is burned before the session opens.
func (s *LoginService) VerifyTwoFactor(tempToken, code string) (*LoginResult, error) {
	userID, err := s.jwtService.VerifyTempTwoFactorToken(tempToken)
	if err != nil {
		return nil, ErrInvalidTwoFactorToken
	}

	user, err := s.requireUser(userID)
	if err != nil {
		return nil, err
	}
	if !user.TOTPEnabled || user.TOTPSecret == nil {
		return nil, ErrTwoFactorNotConfigured
	}

	code = normalizeTwoFactorCode(code)
	if isTOTPCode(code) {
		if !totp.Validate(code, *user.TOTPSecret) {
			return nil, ErrInvalidTwoFactorCode
		}
	} else {
		ok, remaining, err := consumeBackupCode(user.BackupCodes, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidTwoFactorCode
		}
		if err := s.accountsRepo.UpdateBackupCodes(user.ID, &remaining); err != nil {
			return nil, fmt.Errorf("failed to burn backup code: %w", err)
		}
	}

	return s.openSession(user)
}

// BackupCodesRemaining reports how many one-time codes are left.
func (s *LoginService) BackupCodesRemaining(userID uint) (int, error) {
	user, err := s.requireUser(userID)
	if err != nil {
		return 0, err
	}
	if !user.TOTPEnabled {
		return 0, ErrTwoFactorNotEnabled
	}
	return remainingBackupCodes(user.BackupCodes), nil
}

// RegenerateBackupCodes invalidates all previous codes and returns a new set.
func (s *LoginService) RegenerateBackupCodes(userID uint, code, password string) ([]string, error) {
	user, err := s.requireUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPassword(user, password); err != nil {
		return nil, err
	}
	if !user.TOTPEnabled || user.TOTPSecret == nil {
		return nil, ErrTwoFactorNotEnabled
	}
	if !totp.Validate(normalizeTwoFactorCode(code), *user.TOTPSecret) {
		return nil, ErrInvalidTwoFactorCode
	}

	codes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}
	encoded, err := encodeBackupCodes(codes)
	if err != nil {
		return nil, err
	}
	if err := s.accountsRepo.UpdateBackupCodes(user.ID, &encoded); err != nil {
		return nil, fmt.Errorf("failed to store backup codes: %w", err)
	}
	return codes, nil
}

func generateBackupCodes() ([]string, error) {
	codes := make([]string, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes = append(codes, hex.EncodeToString(buf))
	}
	return codes, nil
}

// encodeBackupCodes stores digests, never the codes themselves.
func encodeBackupCodes(codes []string) (string, error) {
	digests := make([]string, 0, len(codes))
	for _, code := range codes {
		digests = append(digests, hashBackupCode(code))
	}
	raw, err := json.Marshal(digests)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup codes: %w", err)
	}
	return string(raw), nil
}

func hashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(code)))
	return hex.EncodeToString(sum[:])
}

// consumeBackupCode reports whether code matches a stored digest and returns
// the encoded list with that digest removed.
func consumeBackupCode(stored *string, code string) (bool, string, error) {
	if stored == nil || *stored == "" {
		return false, "", nil
	}

	var digests []string
	if err := json.Unmarshal([]byte(*stored), &digests); err != nil {
		return false, "", fmt.Errorf("failed to decode backup codes: %w", err)
	}

	target := hashBackupCode(code)
	for i, digest := range digests {
		if digest == target {
			remaining := append(digests[:i:i], digests[i+1:]...)
			raw, err := json.Marshal(remaining)
			if err != nil {
				return false, "", fmt.Errorf("failed to encode backup codes: %w", err)
			}
			return true, string(raw), nil
		}
	}
	return false, "", nil
}

func remainingBackupCodes(stored *string) int {
	if stored == nil || *stored == "" {
		return 0
	}
	var digests []string
	if err := json.Unmarshal([]byte(*stored), &digests); err != nil {
		return 0
	}
	return len(digests)
}

// normalizeTwoFactorCode strips the separators authenticator apps display.
func normalizeTwoFactorCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, " ", "")
	return strings.ReplaceAll(code, "-", "")
}

// isTOTPCode distinguishes 6-digit authenticator codes from backup codes.
func isTOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func qrCodeDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(256, 256)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
