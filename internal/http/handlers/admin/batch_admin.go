package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminBatches 批次列表 (Admin)
func (h *Handler) GetAdminBatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	batches, total, err := h.BatchService.List(repository.BatchListFilter{
		Page:     page,
		PageSize: pageSize,
		Phase:    strings.TrimSpace(c.Query("phase")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, batches, response.NewPagination(page, pageSize, total))
}

// GetAdminBatch 批次详情 (Admin)
func (h *Handler) GetAdminBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.BatchService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, batch)
}

// BatchRequest 批次创建/更新请求
type BatchRequest struct {
	Slug       string                 `json:"slug" binding:"required"`
	TitleJSON  map[string]interface{} `json:"title" binding:"required"`
	NoticeJSON map[string]interface{} `json:"notice"`
	Featured   bool                   `json:"featured"`
	SortOrder  int                    `json:"sort_order"`
}

// CreateBatch 创建批次（始终从 draft 开始）
func (h *Handler) CreateBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	batch := &models.Batch{
		Slug:       strings.TrimSpace(req.Slug),
		TitleJSON:  models.JSON(req.TitleJSON),
		NoticeJSON: models.JSON(req.NoticeJSON),
		Featured:   req.Featured,
		SortOrder:  req.SortOrder,
	}
	if err := h.BatchService.Create(batch); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, batch)
}

// UpdateBatch 更新批次基础信息，阶段不走这里
func (h *Handler) UpdateBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	batch := &models.Batch{
		ID:         id,
		Slug:       strings.TrimSpace(req.Slug),
		TitleJSON:  models.JSON(req.TitleJSON),
		NoticeJSON: models.JSON(req.NoticeJSON),
		Featured:   req.Featured,
		SortOrder:  req.SortOrder,
	}
	if err := h.BatchService.Update(batch); err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, batch)
}

// DeleteBatch 删除批次，仍有未取消订单时拒绝
func (h *Handler) DeleteBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.BatchService.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrBatchNotFound):
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
		case errors.Is(err, service.ErrBatchHasOrders):
			respondError(c, response.CodeConflict, "error.batch_has_orders", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// PhaseTransitionRequest 阶段推进请求
type PhaseTransitionRequest struct {
	ToPhase string `json:"to_phase" binding:"required"`
}

// TransitionBatchPhase 按序推进批次阶段
func (h *Handler) TransitionBatchPhase(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := phaseActor(c)
	if !ok {
		return
	}
	var req PhaseTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	batch, err := h.BatchService.TransitionPhase(actor, id, strings.TrimSpace(req.ToPhase))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchNotFound):
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
		case errors.Is(err, service.ErrBatchTransitionInvalid):
			respondError(c, response.CodeBadRequest, "error.batch_transition_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, batch)
}

// PhaseOverrideRequest 阶段覆盖请求，note 必填
type PhaseOverrideRequest struct {
	ToPhase string `json:"to_phase" binding:"required"`
	Note    string `json:"note" binding:"required"`
}

// OverrideBatchPhase 管理员覆盖批次阶段，允许任意目标并强制留审计
func (h *Handler) OverrideBatchPhase(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := phaseActor(c)
	if !ok {
		return
	}
	var req PhaseOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	batch, err := h.BatchService.OverridePhase(actor, id, strings.TrimSpace(req.ToPhase), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchNotFound):
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
		case errors.Is(err, service.ErrPhaseNoteRequired):
			respondError(c, response.CodeBadRequest, "error.phase_note_required", nil)
		case errors.Is(err, service.ErrBatchTransitionInvalid):
			respondError(c, response.CodeBadRequest, "error.batch_transition_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, batch)
}

// GetBatchCapacity 批次容量汇总（按需计算，全满仅作提示）
func (h *Handler) GetBatchCapacity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.CapacityService.SummarizeBatch(id)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, summary)
}

// GetPhaseAuditLogs 阶段审计日志列表
func (h *Handler) GetPhaseAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	batchID, _ := strconv.ParseUint(c.Query("batch_id"), 10, 64)
	adminID, _ := strconv.ParseUint(c.Query("admin_id"), 10, 64)
	filter := repository.PhaseAuditLogListFilter{
		Page:     page,
		PageSize: pageSize,
		BatchID:  uint(batchID),
		AdminID:  uint(adminID),
		Source:   strings.TrimSpace(c.Query("source")),
	}
	if from := strings.TrimSpace(c.Query("created_from")); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if to := strings.TrimSpace(c.Query("created_to")); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.CreatedTo = &t
		}
	}

	logs, total, err := h.BatchService.ListPhaseAuditLogs(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(page, pageSize, total))
}
