package service

import (
	"strings"
	"time"

	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"

	"gorm.io/gorm"
)

// allowedPhaseTransitions 阶段只允许按序前进一步
var allowedPhaseTransitions = map[string]string{
	constants.BatchPhaseDraft:   constants.BatchPhaseOpen,
	constants.BatchPhaseOpen:    constants.BatchPhaseFilling,
	constants.BatchPhaseFilling: constants.BatchPhaseLocked,
	constants.BatchPhaseLocked:  constants.BatchPhasePayment,
	constants.BatchPhasePayment: constants.BatchPhaseClosed,
}

// validBatchPhase 校验阶段取值
func validBatchPhase(phase string) bool {
	for _, p := range constants.BatchPhaseSequence {
		if p == phase {
			return true
		}
	}
	return false
}

// BatchService 批次服务
type BatchService struct {
	batchRepo repository.BatchRepository
	offerRepo repository.OfferRepository
	orderRepo repository.OrderRepository
	auditRepo repository.PhaseAuditLogRepository
}

// NewBatchService 创建批次服务
func NewBatchService(batchRepo repository.BatchRepository, offerRepo repository.OfferRepository, orderRepo repository.OrderRepository, auditRepo repository.PhaseAuditLogRepository) *BatchService {
	return &BatchService{
		batchRepo: batchRepo,
		offerRepo: offerRepo,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
	}
}

// PhaseActor 执行阶段变更的管理员信息
type PhaseActor struct {
	AdminID   uint
	Username  string
	RequestID string
}

// List 批次列表
func (s *BatchService) List(filter repository.BatchListFilter) ([]models.Batch, int64, error) {
	return s.batchRepo.List(filter)
}

// buyerVisiblePhases 买家可见阶段（open 之后、closed 之前）
var buyerVisiblePhases = []string{
	constants.BatchPhaseOpen,
	constants.BatchPhaseFilling,
	constants.BatchPhaseLocked,
	constants.BatchPhasePayment,
}

// ListOpenForBuyers 买家可见批次列表，阶段过滤下推到查询层，分页和总数按可见集计算
func (s *BatchService) ListOpenForBuyers(page, pageSize int) ([]models.Batch, int64, error) {
	return s.batchRepo.List(repository.BatchListFilter{
		Page:     page,
		PageSize: pageSize,
		Phases:   buyerVisiblePhases,
	})
}

// GetByID 获取批次
func (s *BatchService) GetByID(id uint) (*models.Batch, error) {
	batch, err := s.batchRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}

// Create 创建批次（始终从 draft 开始）
func (s *BatchService) Create(batch *models.Batch) error {
	if batch == nil || strings.TrimSpace(batch.Slug) == "" {
		return ErrInvalidInput
	}
	batch.Phase = constants.BatchPhaseDraft
	return s.batchRepo.Create(batch)
}

// Update 更新批次基础信息，阶段不走这里
func (s *BatchService) Update(batch *models.Batch) error {
	if batch == nil || batch.ID == 0 {
		return ErrBatchNotFound
	}
	existing, err := s.batchRepo.GetByID(batch.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrBatchNotFound
	}
	// 阶段与阶段时间戳不随基础信息更新
	batch.Phase = existing.Phase
	batch.OpenedAt = existing.OpenedAt
	batch.LockedAt = existing.LockedAt
	batch.ClosedAt = existing.ClosedAt
	batch.CreatedAt = existing.CreatedAt
	return s.batchRepo.Update(batch)
}

// Delete 删除批次，批次内仍有未取消订单时拒绝
func (s *BatchService) Delete(id uint) error {
	batch, err := s.batchRepo.GetByID(id)
	if err != nil {
		return err
	}
	if batch == nil {
		return ErrBatchNotFound
	}
	count, err := s.orderRepo.CountActiveByBatch(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrBatchHasOrders
	}
	return models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", id).Delete(&models.Offer{}).Error; err != nil {
			return err
		}
		return s.batchRepo.WithTx(tx).Delete(id)
	})
}

// TransitionPhase 按序推进批次阶段
func (s *BatchService) TransitionPhase(actor PhaseActor, batchID uint, toPhase string) (*models.Batch, error) {
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	next, ok := allowedPhaseTransitions[batch.Phase]
	if !ok || next != toPhase {
		return nil, ErrBatchTransitionInvalid
	}
	return s.writePhase(actor, batch, toPhase, constants.PhaseChangeSourceTransition, "")
}

// OverridePhase 管理员覆盖阶段，允许任意目标但必须给出原因并留审计
func (s *BatchService) OverridePhase(actor PhaseActor, batchID uint, toPhase, note string) (*models.Batch, error) {
	if !validBatchPhase(toPhase) {
		return nil, ErrBatchTransitionInvalid
	}
	if strings.TrimSpace(note) == "" {
		return nil, ErrPhaseNoteRequired
	}
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	if batch.Phase == toPhase {
		return batch, nil
	}
	return s.writePhase(actor, batch, toPhase, constants.PhaseChangeSourceOverride, note)
}

func (s *BatchService) writePhase(actor PhaseActor, batch *models.Batch, toPhase, source, note string) (*models.Batch, error) {
	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	switch toPhase {
	case constants.BatchPhaseOpen:
		updates["opened_at"] = &now
	case constants.BatchPhaseLocked:
		updates["locked_at"] = &now
	case constants.BatchPhaseClosed:
		updates["closed_at"] = &now
	}

	fromPhase := batch.Phase
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.batchRepo.WithTx(tx).UpdatePhase(batch.ID, fromPhase, toPhase, updates)
		if err != nil {
			return err
		}
		if affected == 0 {
			// 并发下被别的请求抢先推进
			return ErrBatchTransitionInvalid
		}
		return s.auditRepo.WithTx(tx).Create(&models.PhaseAuditLog{
			BatchID:       batch.ID,
			AdminID:       actor.AdminID,
			AdminUsername: actor.Username,
			FromPhase:     fromPhase,
			ToPhase:       toPhase,
			Source:        source,
			Note:          strings.TrimSpace(note),
			RequestID:     actor.RequestID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("batch_phase_changed",
		"batch_id", batch.ID,
		"from", fromPhase,
		"to", toPhase,
		"source", source,
		"admin_id", actor.AdminID,
	)
	return s.batchRepo.GetByID(batch.ID)
}

// ListPhaseAuditLogs 查询阶段审计日志
func (s *BatchService) ListPhaseAuditLogs(filter repository.PhaseAuditLogListFilter) ([]models.PhaseAuditLog, int64, error) {
	return s.auditRepo.ListAdmin(filter)
}
