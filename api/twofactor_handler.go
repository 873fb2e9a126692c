package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api/common"
	"github.com/nerith/photofold/api/middleware"
	"github.com/nerith/photofold/internal/auth"
)

// currentUserID reads the authenticated user from the JWT middleware context.
func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.ContextUserIDKey)
}

type verifyTwoFactorRequestBody struct {
	TempToken string `json:"temp_token" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

type twoFactorConfirmRequestBody struct {
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequestBody struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type twoFactorSetupResponse struct {
	QRCode      string   `json:"qr_code"`
	Secret      string   `json:"secret"`
	OTPAuthURL  string   `json:"otpauth_url"`
	BackupCodes []string `json:"backup_codes"`
}

// VerifyTwoFactorHandlerFunc exchanges a temp token plus a TOTP or backup
// code for a full session. Unauthenticated; the temp token is the proof of
// the first factor.
// POST /api/auth/verify-2fa
func (h *LoginHandler) VerifyTwoFactorHandlerFunc(c *gin.Context) {
	var req verifyTwoFactorRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.loginService.VerifyTwoFactor(req.TempToken, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidTwoFactorToken):
			common.RespondError(c, http.StatusUnauthorized, "Invalid or expired 2FA session")
		case errors.Is(err, auth.ErrInvalidTwoFactorCode):
			common.RespondError(c, http.StatusUnauthorized, "Invalid verification code")
		case errors.Is(err, auth.ErrTwoFactorNotConfigured), errors.Is(err, auth.ErrInvalidCredentials):
			common.RespondError(c, http.StatusUnauthorized, "2FA not configured")
		default:
			common.RespondError(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	refreshTokenMaxAge := int(time.Until(result.RefreshTokenExpiry).Seconds())
	setAuthCookies(c, result.RefreshToken, result.DeviceID, refreshTokenMaxAge)

	common.RespondSuccessMessage(c, "Login successful", loginResponse{
		AccessToken:       "Bearer " + result.AccessToken,
		AccessTokenExpiry: result.AccessTokenExpiry.Unix(),
	})
}

// SetupTwoFactorHandlerFunc provisions a secret and backup codes. 2FA stays
// off until the enable endpoint verifies a code.
// GET /api/v1/auth/2fa/setup
func (h *LoginHandler) SetupTwoFactorHandlerFunc(c *gin.Context) {
	setup, err := h.loginService.SetupTwoFactor(currentUserID(c))
	if err != nil {
		respondTwoFactorError(c, err)
		return
	}

	common.RespondSuccess(c, twoFactorSetupResponse{
		QRCode:      setup.QRCode,
		Secret:      setup.Secret,
		OTPAuthURL:  setup.OTPAuthURL,
		BackupCodes: setup.BackupCodes,
	})
}

// EnableTwoFactorHandlerFunc activates 2FA after the authenticator proves it
// holds the secret.
// POST /api/v1/auth/2fa/enable
func (h *LoginHandler) EnableTwoFactorHandlerFunc(c *gin.Context) {
	var req twoFactorConfirmRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.loginService.EnableTwoFactor(currentUserID(c), req.Code, req.Password); err != nil {
		respondTwoFactorError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Two-factor authentication enabled", nil)
}

// DisableTwoFactorHandlerFunc turns 2FA off.
// POST /api/v1/auth/2fa/disable
func (h *LoginHandler) DisableTwoFactorHandlerFunc(c *gin.Context) {
	var req twoFactorConfirmRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.loginService.DisableTwoFactor(currentUserID(c), req.Code, req.Password); err != nil {
		respondTwoFactorError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Two-factor authentication disabled", nil)
}

// BackupCodesHandlerFunc reports the count of unused backup codes, never the
// codes themselves.
// GET /api/v1/auth/2fa/backup-codes
func (h *LoginHandler) BackupCodesHandlerFunc(c *gin.Context) {
	remaining, err := h.loginService.BackupCodesRemaining(currentUserID(c))
	if err != nil {
		respondTwoFactorError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"remaining_count": remaining})
}

// RegenerateBackupCodesHandlerFunc replaces all backup codes with a new set.
// POST /api/v1/auth/2fa/regenerate-backup-codes
func (h *LoginHandler) RegenerateBackupCodesHandlerFunc(c *gin.Context) {
	var req twoFactorConfirmRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	codes, err := h.loginService.RegenerateBackupCodes(currentUserID(c), req.Code, req.Password)
	if err != nil {
		respondTwoFactorError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"backup_codes": codes})
}

// ChangePasswordHandlerFunc rotates the admin password.
// POST /api/v1/auth/change-password
func (h *LoginHandler) ChangePasswordHandlerFunc(c *gin.Context) {
	var req changePasswordRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.loginService.ChangePassword(currentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			common.RespondError(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		respondTwoFactorError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Password changed successfully", nil)
}

// respondTwoFactorError maps the authenticated 2FA management errors.
func respondTwoFactorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrWrongPassword):
		common.RespondError(c, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, auth.ErrTwoFactorNotConfigured):
		common.RespondError(c, http.StatusBadRequest, "2FA not set up")
	case errors.Is(err, auth.ErrTwoFactorNotEnabled):
		common.RespondError(c, http.StatusBadRequest, "2FA is not enabled")
	case errors.Is(err, auth.ErrInvalidTwoFactorCode):
		common.RespondError(c, http.StatusBadRequest, "Invalid verification code")
	case errors.Is(err, auth.ErrInvalidCredentials):
		common.RespondError(c, http.StatusUnauthorized, "Invalid credentials")
	default:
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
