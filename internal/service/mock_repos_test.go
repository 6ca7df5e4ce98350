package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"unitime/backend/internal/model"
	pkgerrors "unitime/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) BatchCreate(ctx context.Context, users []model.User) error {
	for i := range users {
		if err := m.Create(ctx, &users[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByStudentNo(_ context.Context, studentNo string) (*model.User, error) {
	for _, u := range m.users {
		if u.StudentNo != nil && *u.StudentNo == studentNo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			all = append(all, *u)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	classrooms map[string]*model.Classroom
	seq        int
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{classrooms: make(map[string]*model.Classroom)}
}

func (m *mockClassroomRepo) Create(_ context.Context, classroom *model.Classroom) error {
	if classroom.ClassroomID == "" {
		m.seq++
		classroom.ClassroomID = fmt.Sprintf("room-%03d", m.seq)
	}
	m.classrooms[classroom.ClassroomID] = classroom
	return nil
}

func (m *mockClassroomRepo) GetByID(_ context.Context, id string) (*model.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) List(_ context.Context, includeInactive bool) ([]model.Classroom, error) {
	var result []model.Classroom
	for _, c := range m.classrooms {
		if includeInactive || c.IsActive {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockClassroomRepo) Update(_ context.Context, classroom *model.Classroom) error {
	m.classrooms[classroom.ClassroomID] = classroom
	return nil
}

func (m *mockClassroomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.classrooms, id)
	return nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes map[string]*model.Class
	groups  map[string]*model.Group
	seq     int
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{
		classes: make(map[string]*model.Class),
		groups:  make(map[string]*model.Group),
	}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.Class) error {
	if class.ClassID == "" {
		m.seq++
		class.ClassID = fmt.Sprintf("class-%03d", m.seq)
	}
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) List(_ context.Context) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.classes {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, class *model.Class) error {
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.classes, id)
	return nil
}

func (m *mockClassRepo) CreateGroup(_ context.Context, group *model.Group) error {
	if group.GroupID == "" {
		m.seq++
		group.GroupID = fmt.Sprintf("group-%03d", m.seq)
	}
	m.groups[group.GroupID] = group
	return nil
}

func (m *mockClassRepo) GetGroupByID(_ context.Context, id string) (*model.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) ListGroupsByClass(_ context.Context, classID string) ([]model.Group, error) {
	var result []model.Group
	for _, g := range m.groups {
		if g.ClassID == classID {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockClassRepo) DeleteGroup(_ context.Context, id string) error {
	delete(m.groups, id)
	return nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects    map[string]*model.Subject
	enrollments []model.Enrollment
	assignments map[string][]model.StudentGroupAssignment
	seq         int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{
		subjects:    make(map[string]*model.Subject),
		assignments: make(map[string][]model.StudentGroupAssignment),
	}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		m.seq++
		subject.SubjectID = fmt.Sprintf("subj-%03d", m.seq)
	}
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) List(_ context.Context, classID string) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.subjects {
		if classID == "" || s.ClassID == classID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	existing, ok := m.subjects[subject.SubjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != subject.Version {
		return pkgerrors.ErrOptimisticLock
	}
	subject.Version++
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) ReplaceTeachers(_ context.Context, subjectID string, teachers []model.SubjectTeacher) error {
	if s, ok := m.subjects[subjectID]; ok {
		s.Teachers = teachers
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.subjects, id)
	return nil
}

func (m *mockSubjectRepo) AddEnrollment(_ context.Context, enrollment *model.Enrollment) error {
	for _, e := range m.enrollments {
		if e.SubjectID == enrollment.SubjectID && e.StudentID == enrollment.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	if enrollment.EnrollmentID == "" {
		m.seq++
		enrollment.EnrollmentID = fmt.Sprintf("enr-%03d", m.seq)
	}
	m.enrollments = append(m.enrollments, *enrollment)
	return nil
}

func (m *mockSubjectRepo) RemoveEnrollment(_ context.Context, subjectID, studentID string) (int64, error) {
	for i, e := range m.enrollments {
		if e.SubjectID == subjectID && e.StudentID == studentID {
			m.enrollments = append(m.enrollments[:i], m.enrollments[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockSubjectRepo) ListEnrollments(_ context.Context, subjectID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.SubjectID == subjectID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockSubjectRepo) ReplaceAssignments(_ context.Context, subjectID string, assignments []model.StudentGroupAssignment) error {
	m.assignments[subjectID] = assignments
	return nil
}

func (m *mockSubjectRepo) ListAssignments(_ context.Context, subjectID string) ([]model.StudentGroupAssignment, error) {
	return m.assignments[subjectID], nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.Booking
	seq      int
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking)}
}

// Create 模拟坐标唯一索引：同教室同起点同时长的第二次写入
// 返回 ErrInvariantViolation（与真实仓储的错误映射一致）
func (m *mockBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	for _, b := range m.bookings {
		if b.ClassroomID == booking.ClassroomID &&
			b.StartsAt.Equal(booking.StartsAt) &&
			b.DurationMin == booking.DurationMin {
			return pkgerrors.ErrInvariantViolation
		}
	}
	if booking.BookingID == "" {
		m.seq++
		booking.BookingID = fmt.Sprintf("bk-%03d", m.seq)
	}
	if booking.Version == 0 {
		booking.Version = 1
	}
	for i := range booking.Teachers {
		booking.Teachers[i].BookingID = booking.BookingID
	}
	for i := range booking.Audiences {
		booking.Audiences[i].BookingID = booking.BookingID
	}
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) Update(_ context.Context, booking *model.Booking) error {
	existing, ok := m.bookings[booking.BookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != booking.Version {
		return pkgerrors.ErrOptimisticLock
	}
	booking.Version++
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *mockBookingRepo) Delete(_ context.Context, id string) error {
	delete(m.bookings, id)
	return nil
}

func (m *mockBookingRepo) ListByClassroomAndRange(_ context.Context, classroomID string, from, to time.Time) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.ClassroomID == classroomID && !b.StartsAt.Before(from) && b.StartsAt.Before(to) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListByTeacherAndRange(_ context.Context, teacherID string, from, to time.Time) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.StartsAt.Before(from) || !b.StartsAt.Before(to) {
			continue
		}
		for _, t := range b.Teachers {
			if t.TeacherID == teacherID {
				result = append(result, *b)
				break
			}
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListByClassAndRange(_ context.Context, classID string, from, to time.Time) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.StartsAt.Before(from) || !b.StartsAt.Before(to) {
			continue
		}
		for _, a := range b.Audiences {
			if a.ClassID == classID {
				result = append(result, *b)
				break
			}
		}
	}
	return result, nil
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct {
	settings *model.InstitutionSettings
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{}
}

func (m *mockSettingsRepo) Get(_ context.Context) (*model.InstitutionSettings, error) {
	if m.settings == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return m.settings, nil
}

func (m *mockSettingsRepo) Update(_ context.Context, settings *model.InstitutionSettings) error {
	if m.settings != nil && m.settings.Version != settings.Version {
		return pkgerrors.ErrOptimisticLock
	}
	settings.Version++
	m.settings = settings
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
