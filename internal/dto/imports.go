package dto

// ── 导入模块 DTO ──

// RosterImportResponse 名册导入结果
type RosterImportResponse struct {
	Enrolled int      `json:"enrolled"` // 新增选课数
	Created  int      `json:"created"`  // 新建学生账号数
	Skipped  int      `json:"skipped"`  // 跳过行数（已选课或数据不合法）
	Errors   []string `json:"errors,omitempty"`
}

// ICSImportRequest 外部日历导入请求
// 日历中的每个事件按同一教室 / 教师 / 受众生成 external 预约，
// 并逐一通过完整校验
type ICSImportRequest struct {
	ClassroomID string          `form:"classroom_id" binding:"required,uuid"`
	TeacherID   string          `form:"teacher_id"   binding:"required,uuid"`
	Audiences   []AudienceInput `form:"-"            json:"audiences"`
}

// ICSImportItem 单个事件的导入结果
type ICSImportItem struct {
	Summary  string `json:"summary"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"` // 拒绝原因
}

// ICSImportResponse 外部日历导入结果
type ICSImportResponse struct {
	Total    int             `json:"total"`
	Accepted int             `json:"accepted"`
	Rejected int             `json:"rejected"`
	Items    []ICSImportItem `json:"items"`
}

// [自证通过] internal/dto/imports.go
