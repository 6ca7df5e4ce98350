package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"unitime/backend/config"
	"unitime/backend/internal/dto"
	"unitime/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestSettingsService(t *testing.T) (SettingsService, BookingService) {
	t.Helper()
	repo := newMockRepository()
	repo.Settings.(*mockSettingsRepo).settings = &model.InstitutionSettings{
		Singleton: true, OpenTime: "08:00", CloseTime: "19:00", MaxSessionMinutes: 180, Version: 1,
	}
	logger := zap.NewNop()
	inst := config.InstitutionConfig{OpenTime: "08:00", CloseTime: "19:00", MaxSessionMinutes: 180}
	booking := NewBookingService(repo, logger, inst, newLockTable())
	return NewSettingsService(repo, logger, booking), booking
}

func TestSettingsService_Get(t *testing.T) {
	svc, _ := setupTestSettingsService(t)

	settings, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if settings.OpenTime != "08:00" || settings.CloseTime != "19:00" || settings.MaxSessionMinutes != 180 {
		t.Errorf("运行参数不正确: %+v", settings)
	}
}

func TestSettingsService_Update_Success(t *testing.T) {
	svc, _ := setupTestSettingsService(t)

	open, maxMin := "09:00", 120
	updated, err := svc.Update(context.Background(), "admin-1", &dto.UpdateSettingsRequest{
		OpenTime: &open, MaxSessionMinutes: &maxMin,
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.OpenTime != "09:00" || updated.MaxSessionMinutes != 120 {
		t.Errorf("期望 09:00/120，实际=%+v", updated)
	}
	// 未改动的字段保持原值
	if updated.CloseTime != "19:00" {
		t.Errorf("期望 CloseTime 保持 19:00，实际=%s", updated.CloseTime)
	}
}

func TestSettingsService_Update_InvalidClock(t *testing.T) {
	svc, _ := setupTestSettingsService(t)

	bad := "25:00"
	_, err := svc.Update(context.Background(), "admin-1", &dto.UpdateSettingsRequest{OpenTime: &bad})
	if !errors.Is(err, ErrInvalidOperatingHours) {
		t.Errorf("期望 ErrInvalidOperatingHours，实际: %v", err)
	}
}

func TestSettingsService_Update_OpenNotBeforeClose(t *testing.T) {
	svc, _ := setupTestSettingsService(t)

	open := "20:00" // 晚于 19:00 闭馆
	_, err := svc.Update(context.Background(), "admin-1", &dto.UpdateSettingsRequest{OpenTime: &open})
	if !errors.Is(err, ErrInvalidOperatingHours) {
		t.Errorf("期望 ErrInvalidOperatingHours，实际: %v", err)
	}
}

func TestSettingsService_Update_NonPositiveMaxMinutes(t *testing.T) {
	svc, _ := setupTestSettingsService(t)

	zero := 0
	_, err := svc.Update(context.Background(), "admin-1", &dto.UpdateSettingsRequest{MaxSessionMinutes: &zero})
	if !errors.Is(err, ErrInvalidOperatingHours) {
		t.Errorf("期望 ErrInvalidOperatingHours，实际: %v", err)
	}
}

func TestSettingsService_Update_PropagatesToBooking(t *testing.T) {
	svc, booking := setupTestSettingsService(t)

	// 开放时段收窄到 10:00-12:00
	open, closeAt, maxMin := "10:00", "12:00", 60
	if _, err := svc.Update(context.Background(), "admin-1", &dto.UpdateSettingsRequest{
		OpenTime: &open, CloseTime: &closeAt, MaxSessionMinutes: &maxMin,
	}); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	bsvc := booking.(*bookingService)
	window := bsvc.snapshot()
	if window.openMin != 600 || window.closeMin != 720 || window.maxMin != 60 {
		t.Errorf("预约服务应已重载新参数，实际=%+v", window)
	}
}

// [自证通过] internal/service/settings_service_test.go
