package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/dushixiang/coinbook/internal/repo"
	"github.com/dushixiang/coinbook/internal/xe"
	"github.com/dushixiang/coinbook/pkg/nostd"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const jwtIssuer = "coinbook"

// AuthService 认证服务
type AuthService struct {
	logger        *zap.Logger
	userRepo      *repo.UserRepo
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService 创建认证服务，未配置密钥时使用随机值，重启后需重新登录
func NewAuthService(logger *zap.Logger, db *gorm.DB, jwtSecret string, expiration time.Duration) *AuthService {
	if jwtSecret == "" {
		logger.Warn("jwt secret not configured, using a random secret")
		jwtSecret = uuid.NewString()
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &AuthService{
		logger:        logger,
		userRepo:      repo.NewUserRepo(db),
		jwtSecret:     jwtSecret,
		jwtExpiration: expiration,
	}
}

// JWTClaims JWT载荷
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetupRequest 首次设置请求
type SetupRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=5"`
	Nickname string `json:"nickname" validate:"max=100"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=5"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}

func newUserInfo(u *models.User) UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Nickname: u.Nickname}
}

// Setup 创建唯一的账户，已存在账户时拒绝
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) (*UserInfo, error) {
	needsSetup, err := s.NeedsSetup(ctx)
	if err != nil {
		return nil, err
	}
	if !needsSetup {
		return nil, xe.ErrAlreadySetup
	}

	passwordHash, err := nostd.BcryptEncode([]byte(req.Password))
	if err != nil {
		return nil, err
	}

	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = req.Username
	}
	user := models.User{
		ID:           ulid.Make().String(),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(passwordHash),
		Nickname:     nickname,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		if isDuplicateKey(err) {
			return nil, xe.ErrAlreadySetup
		}
		return nil, err
	}

	s.logger.Info("user created", zap.String("username", user.Username))
	info := newUserInfo(&user)
	return &info, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req LoginRequest, ip string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("login failed: user not found",
				zap.String("username", req.Username),
				zap.String("ip", ip))
			return nil, xe.ErrIncorrectAccount
		}
		return nil, err
	}

	if !user.IsActive {
		s.logger.Warn("login failed: user not active",
			zap.String("username", req.Username),
			zap.String("ip", ip))
		return nil, xe.ErrAccountDisabled
	}

	if err := nostd.BcryptMatch([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login failed: invalid password",
			zap.String("username", req.Username),
			zap.String("ip", ip))
		return nil, xe.ErrIncorrectAccount
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, ip); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtExpiration)
	claims := JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		zap.String("username", user.Username),
		zap.String("ip", ip))

	return &LoginResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      newUserInfo(&user),
	}, nil
}

// ValidateToken 验证JWT Token
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(jwtIssuer))
	if err != nil {
		return nil, xe.Wrap(xe.ErrInvalidToken, "%v", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, xe.ErrInvalidToken
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return notFound(err, "user", userID)
	}

	if err := nostd.BcryptMatch([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return xe.ErrIncorrectOldPass
	}

	passwordHash, err := nostd.BcryptEncode([]byte(req.NewPassword))
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(passwordHash)); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", userID))
	return nil
}

// CurrentUser 获取当前用户信息
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.userRepo.FindById(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user", userID)
	}
	info := newUserInfo(&user)
	return &info, nil
}

// NeedsSetup 是否还没有任何账户
func (s *AuthService) NeedsSetup(ctx context.Context) (bool, error) {
	count, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
