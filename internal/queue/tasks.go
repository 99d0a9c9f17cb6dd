package queue

import (
	"encoding/json"

	"github.com/vialpool-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCartPruneOffer 报价下架后的购物车清理任务
	TaskCartPruneOffer = constants.TaskCartPruneOffer
	// TaskBatchFillCheck 批次填充进度检查任务
	TaskBatchFillCheck = constants.TaskBatchFillCheck
)

// CartPruneOfferPayload 购物车清理任务载荷
type CartPruneOfferPayload struct {
	OfferID uint `json:"offer_id"`
}

// BatchFillCheckPayload 批次填充进度检查任务载荷
type BatchFillCheckPayload struct {
	BatchID uint `json:"batch_id"`
}

// NewCartPruneOfferTask 创建购物车清理任务
func NewCartPruneOfferTask(payload CartPruneOfferPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartPruneOffer, body), nil
}

// NewBatchFillCheckTask 创建批次填充进度检查任务
func NewBatchFillCheckTask(payload BatchFillCheckPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBatchFillCheck, body), nil
}
