package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"chatgo/internal/auth"
	"chatgo/internal/avatar"
	"chatgo/internal/config"
	"chatgo/internal/models"
	"chatgo/internal/storage"
)

var (
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrInvalidCredentials = errors.New("无效的用户名或密码")
	ErrUserNotFound       = errors.New("用户未找到")
)

// AuthService 定义了用户认证服务的接口。
type AuthService interface {
	Register(ctx context.Context, username, password, fullName, phoneNumber string) (*models.User, error)
	Login(ctx context.Context, username, password string) (token string, user *models.User, err error)
}

// authService 是 AuthService 的实现。
type authService struct {
	db          *gorm.DB
	userRepo    storage.UserRepository
	channelRepo storage.ChannelRepository
	cfg         config.Config
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(db *gorm.DB, userRepo storage.UserRepository, channelRepo storage.ChannelRepository, cfg config.Config) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		channelRepo: channelRepo,
		cfg:         cfg,
	}
}

// Register 处理用户注册逻辑。用户行和 general 频道成员资格在同一事务中
// 提交：注册要么完整发生，要么完全不发生，不会留下进不了 general 的用户。
func (s *authService) Register(ctx context.Context, username, password, fullName, phoneNumber string) (*models.User, error) {
	newUser, err := s.prepareNewUser(ctx, username, password, fullName, phoneNumber)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createUserWithMembership(ctx, newUser,
			storage.NewGormUserRepository(tx),
			storage.NewGormChannelRepository(tx))
	})
	if err != nil {
		return nil, err
	}

	return newUser, nil
}

// prepareNewUser 校验用户名并构造待插入的用户记录。
func (s *authService) prepareNewUser(ctx context.Context, username, password, fullName, phoneNumber string) (*models.User, error) {
	// 检查用户名是否存在
	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("检查用户名时出错: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	if fullName == "" {
		fullName = username
	}

	return &models.User{
		Username:     username,
		PasswordHash: hashedPassword,
		FullName:     fullName,
		PhoneNumber:  phoneNumber,
		AvatarURL:    avatar.URLFor(fullName),
		Status:       "online",
	}, nil
}

// createUserWithMembership 创建用户并加入 general 频道。
// 两个写入必须运行在同一事务的仓库实例上，由调用方负责。
func createUserWithMembership(ctx context.Context, user *models.User, userRepo storage.UserRepository, channelRepo storage.ChannelRepository) error {
	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}
	if err := channelRepo.AddMember(ctx, models.GeneralChannelID, user.ID); err != nil {
		return fmt.Errorf("加入 general 频道失败: %w", err)
	}
	return nil
}

// Login 处理用户登录逻辑，成功后签发 JWT。
// 用户不存在和密码错误统一返回 ErrInvalidCredentials，不给探测用户名的机会。
func (s *authService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.cfg.Auth)
	if err != nil {
		return "", nil, fmt.Errorf("生成 Token 失败: %w", err)
	}

	return token, user, nil
}
