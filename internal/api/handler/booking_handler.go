package handler

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"unitime/backend/internal/dto"
	"unitime/backend/internal/service"
	pkgerrors "unitime/backend/pkg/errors"
	"unitime/backend/pkg/response"
)

// maxICSFileSize ICS 上传文件大小上限
const maxICSFileSize = 5 << 20 // 5MB

// BookingHandler 预约模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// CreateBooking 创建预约
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Create(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, booking)
}

// GetBooking 获取预约详情
// GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	booking, err := h.bookingSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// UpdateBooking 更新预约（全量重新校验，豁免与自身旧状态的重叠）
// PUT /api/v1/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := h.bookingSvc.Update(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// DeleteBooking 删除预约
// DELETE /api/v1/bookings/:id
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	if err := h.bookingSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListByClassroomDay 查询教室单日预约
// GET /api/v1/classrooms/:id/bookings?date=2026-09-01
func (h *BookingHandler) ListByClassroomDay(c *gin.Context) {
	id := c.Param("id")
	var req dto.BookingDayRequest
	if id == "" || c.ShouldBindQuery(&req) != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	bookings, err := h.bookingSvc.ListByClassroomDay(c.Request.Context(), id, req.Date)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}

// ListByTeacherDay 查询教师单日预约
// GET /api/v1/teachers/:id/bookings?date=2026-09-01
func (h *BookingHandler) ListByTeacherDay(c *gin.Context) {
	id := c.Param("id")
	var req dto.BookingDayRequest
	if id == "" || c.ShouldBindQuery(&req) != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	bookings, err := h.bookingSvc.ListByTeacherDay(c.Request.Context(), id, req.Date)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}

// ListByClassDay 查询班级单日预约
// GET /api/v1/classes/:id/bookings?date=2026-09-01
func (h *BookingHandler) ListByClassDay(c *gin.Context) {
	id := c.Param("id")
	var req dto.BookingDayRequest
	if id == "" || c.ShouldBindQuery(&req) != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	bookings, err := h.bookingSvc.ListByClassDay(c.Request.Context(), id, req.Date)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}

// ImportICS 导入外部 iCalendar 日历
// POST /api/v1/bookings/import-ics（multipart: file + classroom_id + teacher_id + audiences）
func (h *BookingHandler) ImportICS(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ICSImportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	// audiences 以 JSON 字符串形式随表单提交
	if raw := c.PostForm("audiences"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Audiences); err != nil {
			response.BadRequest(c, 10001, "audiences 格式无效")
			return
		}
	}
	if len(req.Audiences) == 0 {
		response.BadRequest(c, 10001, "audiences 不能为空")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}
	if fileHeader.Size > maxICSFileSize {
		response.BadRequest(c, 15010, "ICS 文件过大")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxICSFileSize))
	if err != nil {
		response.InternalError(c)
		return
	}

	result, err := h.bookingSvc.ImportICS(c.Request.Context(), callerID, &req, data)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, result)
}

// handleBookingError 统一处理预约模块业务错误。
// 冲突类错误携带 ConflictError 详情时附带说明文本。
func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	var conflict *service.ConflictError

	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 15001, "预约不存在")
	case errors.Is(err, service.ErrInvalidTimeFormat):
		response.BadRequest(c, 15002, "无效的时间格式")
	case errors.Is(err, service.ErrInvalidBookingKind):
		response.BadRequest(c, 15003, "无效的预约类型")
	case errors.Is(err, service.ErrEndBeforeStart):
		response.BadRequest(c, 15004, "预约时长必须为正")
	case errors.Is(err, service.ErrOutsideOperatingHours):
		response.BadRequest(c, 15005, "预约时段超出开放时间")
	case errors.Is(err, service.ErrScheduledInPast):
		response.BadRequest(c, 15006, "不能预约过去的时段")
	case errors.Is(err, service.ErrDurationExceedsMaximum):
		response.BadRequest(c, 15007, "预约时长超过单次上限")
	case errors.Is(err, service.ErrClassroomOccupied),
		errors.Is(err, service.ErrTeacherOccupied),
		errors.Is(err, service.ErrClassOrGroupOccupied):
		if errors.As(err, &conflict) {
			response.ErrorWithDetails(c, 409, 15008, "时段冲突", conflict.Error())
		} else {
			response.Conflict(c, 15008, "时段冲突")
		}
	case errors.Is(err, service.ErrInvalidResourceRef):
		response.BadRequest(c, 15009, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15011, "预约已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/booking_handler.go
