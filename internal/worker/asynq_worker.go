package worker

import (
	"context"
	"encoding/json"

	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/provider"
	"github.com/vialpool-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCartPruneOffer, c.handleCartPruneOffer)
	mux.HandleFunc(queue.TaskBatchFillCheck, c.handleBatchFillCheck)
}

func (c *Consumer) handleCartPruneOffer(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_cart_prune_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartPruneOfferPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_prune_unmarshal_failed", "error", err)
		return err
	}
	if payload.OfferID == 0 {
		logger.Debugw("worker_cart_prune_skip_invalid_payload", "offer_id", payload.OfferID)
		return nil
	}
	removed, err := c.CartRepo.DeleteByOffer(payload.OfferID)
	if err != nil {
		logger.Warnw("worker_cart_prune_failed", "offer_id", payload.OfferID, "error", err)
		return err
	}
	if removed > 0 {
		logger.Infow("worker_cart_prune_done", "offer_id", payload.OfferID, "removed", removed)
	}
	return nil
}

func (c *Consumer) handleBatchFillCheck(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_fill_check_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BatchFillCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_fill_check_unmarshal_failed", "error", err)
		return err
	}
	if payload.BatchID == 0 {
		logger.Debugw("worker_fill_check_skip_invalid_payload", "batch_id", payload.BatchID)
		return nil
	}
	summary, err := c.CapacityService.SummarizeBatch(payload.BatchID)
	if err != nil {
		logger.Warnw("worker_fill_check_failed", "batch_id", payload.BatchID, "error", err)
		return err
	}
	// 全满只记录提示，锁批次始终是管理员动作
	if summary.AllCommitted {
		logger.Infow("worker_batch_fully_committed",
			"batch_id", payload.BatchID,
			"total_capacity", summary.TotalCapacity,
		)
	} else {
		logger.Debugw("worker_batch_fill_progress",
			"batch_id", payload.BatchID,
			"total_capacity", summary.TotalCapacity,
			"total_committed", summary.TotalCommitted,
		)
	}
	return nil
}
