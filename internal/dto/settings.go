package dto

// ── 校区运行参数 DTO ──

// UpdateSettingsRequest 更新运行参数请求
type UpdateSettingsRequest struct {
	OpenTime          *string `json:"open_time"           binding:"omitempty,len=5"`
	CloseTime         *string `json:"close_time"          binding:"omitempty,len=5"`
	MaxSessionMinutes *int    `json:"max_session_minutes" binding:"omitempty,min=1"`
}

// SettingsResponse 运行参数响应
type SettingsResponse struct {
	OpenTime          string `json:"open_time"`
	CloseTime         string `json:"close_time"`
	MaxSessionMinutes int    `json:"max_session_minutes"`
	UpdatedAt         string `json:"updated_at"`
}

// [自证通过] internal/dto/settings.go
