package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/utils"
)

// TokenPair bundles a fresh access token with its refresh token.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// TokenClaims is the decoded view of an access token.
type TokenClaims struct {
	Username string
	UserID   uint
	Role     string
	Type     string
	Exp      int64
	Iat      int64
}

// TokenConfig holds the JWT signing configuration.
type TokenConfig struct {
	Secret           []byte
	ExpiresIn        time.Duration
	RefreshExpiresIn time.Duration
}

// JWTService signs and verifies access tokens. Refresh tokens are opaque
// random strings tracked per device in the database.
type JWTService struct {
	config TokenConfig
}

// NewJWTService builds the service from the loaded configuration.
func NewJWTService(cfg *config.Config) (*JWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters long, got %d", len(cfg.JWTSecret))
	}

	expiresIn, err := time.ParseDuration(cfg.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access token TTL: %s", cfg.JWTExpiresIn)
	}

	refreshExpiresIn, err := time.ParseDuration(cfg.JWTRefreshExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT refresh token TTL: %s", cfg.JWTRefreshExpiresIn)
	}

	return &JWTService{
		config: TokenConfig{
			Secret:           []byte(cfg.JWTSecret),
			ExpiresIn:        expiresIn,
			RefreshExpiresIn: refreshExpiresIn,
		},
	}, nil
}

// NewJWTServiceWithConfig builds the service from an explicit token config.
func NewJWTServiceWithConfig(config TokenConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateTokens issues an access token and a fresh refresh token.
func (s *JWTService) GenerateTokens(username string, userID uint, role string) (*TokenPair, error) {
	accessToken, accessTokenExpiry, err := s.GenerateAccessToken(username, userID, role)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshTokenExpiry, err := s.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:        accessToken,
		AccessTokenExpiry:  accessTokenExpiry,
		RefreshToken:       refreshToken,
		RefreshTokenExpiry: refreshTokenExpiry,
	}, nil
}

// GenerateAccessToken signs a short-lived HS256 access token.
func (s *JWTService) GenerateAccessToken(username string, userID uint, role string) (string, time.Time, error) {
	if len(s.config.Secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret is not initialized")
	}

	accessTokenExpiry := time.Now().Add(s.config.ExpiresIn)
	accessClaims := jwt.MapClaims{
		"username": username,
		"user_id":  userID,
		"role":     role,
		"type":     "access",
		"exp":      accessTokenExpiry.Unix(),
		"iat":      time.Now().Unix(),
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, accessTokenExpiry, nil
}

// tempTwoFactorTTL is how long a login may sit between password and code.
const tempTwoFactorTTL = 5 * time.Minute

// GenerateTempTwoFactorToken signs a short-lived token that only authorizes
// the second factor step of a login. It is never accepted as an access token.
func (s *JWTService) GenerateTempTwoFactorToken(userID uint) (string, error) {
	if len(s.config.Secret) == 0 {
		return "", errors.New("JWT secret is not initialized")
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    "2fa",
		"exp":     time.Now().Add(tempTwoFactorTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate 2fa token: %w", err)
	}
	return token, nil
}

// VerifyTempTwoFactorToken returns the user ID carried by a valid temp token.
func (s *JWTService) VerifyTempTwoFactorToken(tokenString string) (uint, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return 0, err
	}

	if tokenType, _ := claims["type"].(string); tokenType != "2fa" {
		return 0, errors.New("token is not a 2fa token")
	}

	userIDFloat, _ := claims["user_id"].(float64)
	if userIDFloat == 0 {
		return 0, errors.New("token carries no user id")
	}
	return uint(userIDFloat), nil
}

// GenerateRefreshToken creates an opaque refresh token with its expiry.
func (s *JWTService) GenerateRefreshToken() (string, time.Time, error) {
	refreshToken, err := utils.GenerateRandomToken(64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return refreshToken, time.Now().Add(s.config.RefreshExpiresIn), nil
}

// ParseToken parses and verifies a signed token.
func (s *JWTService) ParseToken(tokenString string) (jwt.MapClaims, error) {
	if len(s.config.Secret) == 0 {
		return nil, errors.New("JWT secret is not initialized")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ExtractClaims decodes the claims of a verified token.
func (s *JWTService) ExtractClaims(tokenString string) (*TokenClaims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	tokenType, _ := claims["type"].(string)

	userIDFloat, _ := claims["user_id"].(float64)
	expFloat, _ := claims["exp"].(float64)
	iatFloat, _ := claims["iat"].(float64)

	return &TokenClaims{
		Username: username,
		UserID:   uint(userIDFloat),
		Role:     role,
		Type:     tokenType,
		Exp:      int64(expFloat),
		Iat:      int64(iatFloat),
	}, nil
}

// IsAccessToken reports whether the token carries the access type claim.
func (s *JWTService) IsAccessToken(tokenString string) (bool, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return false, err
	}

	tokenType, _ := claims["type"].(string)
	return tokenType == "access", nil
}
