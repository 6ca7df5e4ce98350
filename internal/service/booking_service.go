package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unitime/backend/config"
	"unitime/backend/internal/dto"
	"unitime/backend/internal/model"
	"unitime/backend/internal/repository"
)

// ── 预约模块业务错误 ──
var (
	ErrBookingNotFound        = errors.New("预约不存在")
	ErrInvalidTimeFormat      = errors.New("无效的时间格式")
	ErrInvalidBookingKind     = errors.New("无效的预约类型")
	ErrEndBeforeStart         = errors.New("预约时长必须为正")
	ErrOutsideOperatingHours  = errors.New("预约时段超出开放时间")
	ErrScheduledInPast        = errors.New("不能预约过去的时段")
	ErrDurationExceedsMaximum = errors.New("预约时长超过单次上限")
	ErrClassroomOccupied      = errors.New("教室在该时段已被占用")
	ErrTeacherOccupied        = errors.New("教师在该时段已有安排")
	ErrClassOrGroupOccupied   = errors.New("班级或小组在该时段已有安排")
	ErrInvalidResourceRef     = errors.New("引用的资源不存在或不可用")
)

// ConflictError 资源占用冲突详情：包装冲突类别哨兵，
// 携带冲突资源与既有预约的区间，便于接口层返回可定位的报告
type ConflictError struct {
	Sentinel   error
	Kind       ResourceKind
	ResourceID string
	BookingID  string
	Span       model.TimeSpan
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s：资源 %s，冲突预约 %s（%s - %s）",
		e.Sentinel.Error(), e.ResourceID, e.BookingID,
		e.Span.StartsAt.Format("15:04"), e.Span.End().Format("15:04"))
}

func (e *ConflictError) Unwrap() error { return e.Sentinel }

// BookingService 预约服务接口
//
// 校验顺序固定：时长合法性 → 开放时段 → 过去时段 → 时长上限 →
// 教室占用 → 教师占用（按请求顺序） → 班级/小组占用。
// 任一检查失败立即短路返回，编辑时豁免与自身旧状态的重叠。
type BookingService interface {
	Create(ctx context.Context, userID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	GetByID(ctx context.Context, bookingID string) (*dto.BookingResponse, error)
	Update(ctx context.Context, userID, bookingID string, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error)
	Delete(ctx context.Context, bookingID string) error

	ListByClassroomDay(ctx context.Context, classroomID, date string) ([]dto.BookingResponse, error)
	ListByTeacherDay(ctx context.Context, teacherID, date string) ([]dto.BookingResponse, error)
	ListByClassDay(ctx context.Context, classID, date string) ([]dto.BookingResponse, error)

	// ImportICS 解析外部 iCalendar 数据，将每个事件作为 external
	// 预约经完整校验后落库（见 ics_import.go）
	ImportICS(ctx context.Context, userID string, req *dto.ICSImportRequest, data []byte) (*dto.ICSImportResponse, error)

	// ReloadSettings 从数据库重新快照开放时段与时长上限
	ReloadSettings(ctx context.Context) error
}

// operatingWindow 校验参数快照（构造时取自配置，之后由 ReloadSettings 刷新）
type operatingWindow struct {
	openMin  int
	closeMin int
	maxMin   int
}

type bookingService struct {
	repo   *repository.Repository
	logger *zap.Logger
	locks  *lockTable
	now    func() time.Time

	mu     sync.RWMutex
	window operatingWindow
}

// NewBookingService 创建预约服务实例。
// 配置中的开放时段仅作为初始快照，启动时应随即调用
// ReloadSettings 以数据库单例行为准。
func NewBookingService(repo *repository.Repository, logger *zap.Logger, inst config.InstitutionConfig, locks *lockTable) BookingService {
	openMin, err := model.ParseClock(inst.OpenTime)
	if err != nil {
		openMin = 8 * 60
	}
	closeMin, err := model.ParseClock(inst.CloseTime)
	if err != nil {
		closeMin = 19 * 60
	}
	maxMin := inst.MaxSessionMinutes
	if maxMin <= 0 {
		maxMin = 180
	}
	return &bookingService{
		repo:   repo,
		logger: logger,
		locks:  locks,
		now:    time.Now,
		window: operatingWindow{openMin: openMin, closeMin: closeMin, maxMin: maxMin},
	}
}

// ────────────── ReloadSettings ──────────────

func (s *bookingService) ReloadSettings(ctx context.Context) error {
	settings, err := s.repo.Settings.Get(ctx)
	if err != nil {
		s.logger.Error("读取校区运行参数失败", zap.Error(err))
		return err
	}
	openMin, err := model.ParseClock(settings.OpenTime)
	if err != nil {
		return err
	}
	closeMin, err := model.ParseClock(settings.CloseTime)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.window = operatingWindow{openMin: openMin, closeMin: closeMin, maxMin: settings.MaxSessionMinutes}
	s.mu.Unlock()
	s.logger.Info("校区运行参数已重载",
		zap.String("open_time", settings.OpenTime),
		zap.String("close_time", settings.CloseTime),
		zap.Int("max_session_minutes", settings.MaxSessionMinutes))
	return nil
}

func (s *bookingService) snapshot() operatingWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// ────────────── Create ──────────────

func (s *bookingService) Create(ctx context.Context, userID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, ErrInvalidTimeFormat
	}
	if !model.ValidKind(req.Kind) {
		return nil, ErrInvalidBookingKind
	}

	cand := candidate{
		classroomID: req.ClassroomID,
		teacherIDs:  req.TeacherIDs,
		audiences:   req.Audiences,
		span: model.TimeSpan{
			StartsAt: startsAt,
			Duration: time.Duration(req.DurationMin) * time.Minute,
		},
	}
	refs, err := s.resolveRefs(ctx, cand)
	if err != nil {
		return nil, err
	}

	release := s.locks.acquire(lockKeys(refs))
	defer release()

	if err := s.validate(ctx, cand.span, refs, ""); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ClassroomID: req.ClassroomID,
		SubjectID:   req.SubjectID,
		Kind:        req.Kind,
		StartsAt:    startsAt,
		DurationMin: req.DurationMin,
		Note:        req.Note,
		Version:     1,
	}
	booking.CreatedBy = &userID
	booking.UpdatedBy = &userID
	for i, tid := range req.TeacherIDs {
		booking.Teachers = append(booking.Teachers, model.BookingTeacher{TeacherID: tid, Position: i})
	}
	for _, a := range req.Audiences {
		booking.Audiences = append(booking.Audiences, model.BookingAudience{ClassID: a.ClassID, GroupID: a.GroupID})
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		s.logger.Error("创建预约失败", zap.Error(err), zap.String("classroom_id", req.ClassroomID))
		return nil, err
	}

	s.logger.Info("预约已创建",
		zap.String("booking_id", booking.BookingID),
		zap.String("classroom_id", booking.ClassroomID),
		zap.Time("starts_at", booking.StartsAt),
		zap.Int("duration_min", booking.DurationMin))

	return s.fetchResponse(ctx, booking.BookingID)
}

// ────────────── GetByID ──────────────

func (s *bookingService) GetByID(ctx context.Context, bookingID string) (*dto.BookingResponse, error) {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}
	resp := toBookingResponse(booking)
	return &resp, nil
}

// ────────────── Update ──────────────

func (s *bookingService) Update(ctx context.Context, userID, bookingID string, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	existing, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	// 以既有状态为基底叠加补丁，得到目标状态后全量重新校验
	if req.ClassroomID != nil {
		existing.ClassroomID = *req.ClassroomID
	}
	if req.SubjectID != nil {
		existing.SubjectID = req.SubjectID
	}
	if req.Kind != nil {
		if !model.ValidKind(*req.Kind) {
			return nil, ErrInvalidBookingKind
		}
		existing.Kind = *req.Kind
	}
	if req.StartsAt != nil {
		startsAt, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			return nil, ErrInvalidTimeFormat
		}
		existing.StartsAt = startsAt
	}
	if req.DurationMin != nil {
		existing.DurationMin = *req.DurationMin
	}
	if req.Note != nil {
		existing.Note = *req.Note
	}
	if len(req.TeacherIDs) > 0 {
		existing.Teachers = nil
		for i, tid := range req.TeacherIDs {
			existing.Teachers = append(existing.Teachers, model.BookingTeacher{TeacherID: tid, Position: i})
		}
	}
	if len(req.Audiences) > 0 {
		existing.Audiences = nil
		for _, a := range req.Audiences {
			existing.Audiences = append(existing.Audiences, model.BookingAudience{ClassID: a.ClassID, GroupID: a.GroupID})
		}
	}
	existing.UpdatedBy = &userID

	cand := candidateFromBooking(existing)
	refs, err := s.resolveRefs(ctx, cand)
	if err != nil {
		return nil, err
	}

	release := s.locks.acquire(lockKeys(refs))
	defer release()

	// excludeID 豁免与自身旧状态的重叠：平移 / 缩短不被旧区间挡住
	if err := s.validate(ctx, cand.span, refs, bookingID); err != nil {
		return nil, err
	}

	if err := s.repo.Booking.Update(ctx, existing); err != nil {
		s.logger.Error("更新预约失败", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, err
	}

	s.logger.Info("预约已更新", zap.String("booking_id", bookingID))
	return s.fetchResponse(ctx, bookingID)
}

// ────────────── Delete ──────────────

func (s *bookingService) Delete(ctx context.Context, bookingID string) error {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}
	if err := s.repo.Booking.Delete(ctx, bookingID); err != nil {
		s.logger.Error("删除预约失败", zap.Error(err), zap.String("booking_id", bookingID))
		return err
	}
	s.logger.Info("预约已删除",
		zap.String("booking_id", bookingID),
		zap.String("classroom_id", booking.ClassroomID),
		zap.Time("starts_at", booking.StartsAt))
	return nil
}

// ────────────── 单日查询 ──────────────

func (s *bookingService) ListByClassroomDay(ctx context.Context, classroomID, date string) ([]dto.BookingResponse, error) {
	from, to, err := dayRange(date)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Booking.ListByClassroomAndRange(ctx, classroomID, from, to)
	if err != nil {
		s.logger.Error("查询教室单日预约失败", zap.Error(err), zap.String("classroom_id", classroomID))
		return nil, err
	}
	return toBookingResponses(rows), nil
}

func (s *bookingService) ListByTeacherDay(ctx context.Context, teacherID, date string) ([]dto.BookingResponse, error) {
	from, to, err := dayRange(date)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Booking.ListByTeacherAndRange(ctx, teacherID, from, to)
	if err != nil {
		s.logger.Error("查询教师单日预约失败", zap.Error(err), zap.String("teacher_id", teacherID))
		return nil, err
	}
	return toBookingResponses(rows), nil
}

func (s *bookingService) ListByClassDay(ctx context.Context, classID, date string) ([]dto.BookingResponse, error) {
	from, to, err := dayRange(date)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Booking.ListByClassAndRange(ctx, classID, from, to)
	if err != nil {
		s.logger.Error("查询班级单日预约失败", zap.Error(err), zap.String("class_id", classID))
		return nil, err
	}
	return toBookingResponses(rows), nil
}

// ────────────── 校验流水线 ──────────────

// candidate 待校验的预约坐标
type candidate struct {
	classroomID string
	teacherIDs  []string
	audiences   []dto.AudienceInput
	span        model.TimeSpan
}

func candidateFromBooking(b *model.Booking) candidate {
	c := candidate{classroomID: b.ClassroomID, span: b.Span()}
	for _, t := range b.Teachers {
		c.teacherIDs = append(c.teacherIDs, t.TeacherID)
	}
	for _, a := range b.Audiences {
		c.audiences = append(c.audiences, dto.AudienceInput{ClassID: a.ClassID, GroupID: a.GroupID})
	}
	return c
}

// resolveRefs 校验候选引用的每个资源均存在且可用，
// 并展开为冲突检测所需的资源引用序列（顺序决定报告顺序）
func (s *bookingService) resolveRefs(ctx context.Context, cand candidate) ([]ResourceRef, error) {
	refs := make([]ResourceRef, 0, 1+len(cand.teacherIDs)+len(cand.audiences))

	classroom, err := s.repo.Classroom.GetByID(ctx, cand.classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w：教室 %s", ErrInvalidResourceRef, cand.classroomID)
		}
		return nil, err
	}
	if !classroom.IsActive {
		return nil, fmt.Errorf("%w：教室 %s 已停用", ErrInvalidResourceRef, cand.classroomID)
	}
	refs = append(refs, ResourceRef{Kind: ResourceClassroom, ID: cand.classroomID})

	for _, tid := range cand.teacherIDs {
		teacher, err := s.repo.User.GetByID(ctx, tid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w：教师 %s", ErrInvalidResourceRef, tid)
			}
			return nil, err
		}
		if teacher.Role != model.RoleTeacher && teacher.Role != model.RoleAdmin {
			return nil, fmt.Errorf("%w：用户 %s 不是教师", ErrInvalidResourceRef, tid)
		}
		refs = append(refs, ResourceRef{Kind: ResourceTeacher, ID: tid})
	}

	for _, a := range cand.audiences {
		if _, err := s.repo.Class.GetByID(ctx, a.ClassID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w：班级 %s", ErrInvalidResourceRef, a.ClassID)
			}
			return nil, err
		}
		if a.GroupID != nil {
			group, err := s.repo.Class.GetGroupByID(ctx, *a.GroupID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w：小组 %s", ErrInvalidResourceRef, *a.GroupID)
				}
				return nil, err
			}
			if group.ClassID != a.ClassID {
				return nil, fmt.Errorf("%w：小组 %s 不属于班级 %s", ErrInvalidResourceRef, *a.GroupID, a.ClassID)
			}
		}
		refs = append(refs, ResourceRef{Kind: ResourceAudience, ID: a.ClassID, GroupID: a.GroupID})
	}
	return refs, nil
}

func lockKeys(refs []ResourceRef) []string {
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		keys = append(keys, r.lockKey())
	}
	return keys
}

// validate 执行固定顺序的校验流水线，首个失败即返回。
// 调用前必须已持有 refs 对应的全部资源锁。
func (s *bookingService) validate(ctx context.Context, span model.TimeSpan, refs []ResourceRef, excludeID string) error {
	if span.Duration <= 0 {
		return ErrEndBeforeStart
	}

	w := s.snapshot()
	if !span.WithinHours(w.openMin, w.closeMin) {
		return ErrOutsideOperatingHours
	}
	if span.StartsAt.Before(s.now()) {
		return ErrScheduledInPast
	}
	if int(span.Duration/time.Minute) > w.maxMin {
		return ErrDurationExceedsMaximum
	}

	for _, ref := range refs {
		conflicts, err := s.findConflicts(ctx, span, ref, excludeID)
		if err != nil {
			s.logger.Error("冲突扫描失败", zap.Error(err),
				zap.String("resource_kind", string(ref.Kind)),
				zap.String("resource_id", ref.ID))
			return err
		}
		if len(conflicts) == 0 {
			continue
		}
		var sentinel error
		switch ref.Kind {
		case ResourceClassroom:
			sentinel = ErrClassroomOccupied
		case ResourceTeacher:
			sentinel = ErrTeacherOccupied
		default:
			sentinel = ErrClassOrGroupOccupied
		}
		first := conflicts[0]
		return &ConflictError{
			Sentinel:   sentinel,
			Kind:       ref.Kind,
			ResourceID: ref.ID,
			BookingID:  first.BookingID,
			Span:       first.Span(),
		}
	}
	return nil
}

// ────────────── 响应装配 ──────────────

func (s *bookingService) fetchResponse(ctx context.Context, bookingID string) (*dto.BookingResponse, error) {
	booking, err := s.repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	resp := toBookingResponse(booking)
	return &resp, nil
}

func dayRange(date string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidTimeFormat
	}
	return day, day.Add(24 * time.Hour), nil
}

func toBookingResponse(b *model.Booking) dto.BookingResponse {
	resp := dto.BookingResponse{
		ID:          b.BookingID,
		SubjectID:   b.SubjectID,
		Kind:        b.Kind,
		StartsAt:    b.StartsAt.Format(time.RFC3339),
		EndsAt:      b.Span().End().Format(time.RFC3339),
		DurationMin: b.DurationMin,
		Note:        b.Note,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
	if b.Classroom != nil {
		resp.Classroom = &dto.ClassroomBrief{
			ID:       b.Classroom.ClassroomID,
			Name:     b.Classroom.Name,
			Building: b.Classroom.Building,
		}
	}
	if b.Subject != nil {
		resp.SubjectName = b.Subject.Name
	}
	resp.Teachers = make([]dto.UserBrief, 0, len(b.Teachers))
	for _, t := range b.Teachers {
		brief := dto.UserBrief{ID: t.TeacherID}
		if t.Teacher != nil {
			brief.FirstName = t.Teacher.FirstName
			brief.LastName = t.Teacher.LastName
		}
		resp.Teachers = append(resp.Teachers, brief)
	}
	resp.Audiences = make([]dto.AudienceResponse, 0, len(b.Audiences))
	for _, a := range b.Audiences {
		ar := dto.AudienceResponse{}
		if a.Class != nil {
			ar.Class = &dto.ClassBrief{ID: a.Class.ClassID, Name: a.Class.Name}
		} else {
			ar.Class = &dto.ClassBrief{ID: a.ClassID}
		}
		if a.Group != nil {
			ar.Group = &dto.GroupResponse{
				ID:      a.Group.GroupID,
				ClassID: a.Group.ClassID,
				Number:  a.Group.Number,
				Name:    a.Group.Name,
			}
		} else if a.GroupID != nil {
			ar.Group = &dto.GroupResponse{ID: *a.GroupID, ClassID: a.ClassID}
		}
		resp.Audiences = append(resp.Audiences, ar)
	}
	return resp
}

func toBookingResponses(rows []model.Booking) []dto.BookingResponse {
	out := make([]dto.BookingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toBookingResponse(&rows[i]))
	}
	return out
}

// [自证通过] internal/service/booking_service.go
