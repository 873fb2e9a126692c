package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/api/common"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/internal/auth"
)

// LoginHandler serves the admin auth endpoints.
type LoginHandler struct {
	loginService *auth.LoginService
}

func NewLoginHandler(loginService *auth.LoginService) *LoginHandler {
	return &LoginHandler{
		loginService: loginService,
	}
}

type userAuthRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken       string `json:"access_token"`
	AccessTokenExpiry int64  `json:"access_token_expiry"`
}

type twoFactorChallengeResponse struct {
	RequiresTwoFactor bool   `json:"requires_2fa"`
	TempToken         string `json:"temp_token"`
}

// LoginHandlerFunc authenticates and sets the refresh-token cookies.
func (h *LoginHandler) LoginHandlerFunc(c *gin.Context) {
	if h.loginService == nil {
		common.RespondError(c, http.StatusInternalServerError, "Login service not initialized")
		return
	}

	var req userAuthRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.loginService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			common.RespondError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if result.RequiresTwoFactor {
		common.RespondSuccessMessage(c, "Two-factor verification required", twoFactorChallengeResponse{
			RequiresTwoFactor: true,
			TempToken:         result.TempToken,
		})
		return
	}

	refreshTokenMaxAge := int(time.Until(result.RefreshTokenExpiry).Seconds())
	setAuthCookies(c, result.RefreshToken, result.DeviceID, refreshTokenMaxAge)

	common.RespondSuccessMessage(c, "Login successful", loginResponse{
		AccessToken:       "Bearer " + result.AccessToken,
		AccessTokenExpiry: result.AccessTokenExpiry.Unix(),
	})
}

// RefreshTokenHandlerFunc rotates the refresh token from cookies.
func (h *LoginHandler) RefreshTokenHandlerFunc(c *gin.Context) {
	if h.loginService == nil {
		common.RespondError(c, http.StatusInternalServerError, "Login service not initialized")
		return
	}

	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		common.RespondError(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	deviceID, err := c.Cookie("device_id")
	if err != nil {
		common.RespondError(c, http.StatusUnauthorized, "Device ID not found")
		return
	}

	result, err := h.loginService.RefreshToken(refreshToken, deviceID)
	if err != nil {
		common.RespondError(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	newRefreshTokenMaxAge := int(time.Until(result.RefreshTokenExpiry).Seconds())
	setAuthCookies(c, result.RefreshToken, deviceID, newRefreshTokenMaxAge)

	common.RespondSuccessMessage(c, "Refresh token successful", loginResponse{
		AccessToken:       "Bearer " + result.AccessToken,
		AccessTokenExpiry: result.AccessTokenExpiry.Unix(),
	})
}

// LogoutHandlerFunc drops the session and clears the cookies.
func (h *LoginHandler) LogoutHandlerFunc(c *gin.Context) {
	deviceID, err := c.Cookie("device_id")
	if err != nil {
		common.RespondSuccessMessage(c, "Already logged out or session invalid", nil)
		return
	}

	if h.loginService != nil {
		_ = h.loginService.Logout(deviceID)
	}

	clearAuthCookies(c)

	common.RespondSuccessMessage(c, "Logout successful", nil)
}

// setAuthCookies sets the refresh_token and device_id HttpOnly cookies.
func setAuthCookies(c *gin.Context, refreshToken, deviceID string, maxAge int) {
	path := "/api/auth/"
	secure := config.IsProduction()

	refreshTokenCookie := http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		MaxAge:   maxAge,
		Path:     path,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	deviceIDCookie := http.Cookie{
		Name:     "device_id",
		Value:    deviceID,
		MaxAge:   maxAge,
		Path:     path,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(c.Writer, &refreshTokenCookie)
	http.SetCookie(c.Writer, &deviceIDCookie)
}

// clearAuthCookies tells the browser to drop the auth cookies.
func clearAuthCookies(c *gin.Context) {
	cfg := config.Get()

	path := "/api/auth/"
	domain := cfg.ServerDomain

	c.SetCookie("refresh_token", "", -1, path, domain, false, true)
	c.SetCookie("device_id", "", -1, path, domain, false, true)
}
