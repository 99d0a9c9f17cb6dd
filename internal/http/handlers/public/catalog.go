package public

import (
	"errors"
	"strconv"

	"github.com/vialpool-next/internal/constants"
	handlershared "github.com/vialpool-next/internal/http/handlers/shared"
	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicBatchView 买家可见批次摘要
type PublicBatchView struct {
	ID       uint        `json:"id"`
	Slug     string      `json:"slug"`
	Title    models.JSON `json:"title"`
	Notice   models.JSON `json:"notice,omitempty"`
	Phase    string      `json:"phase"`
	Featured bool        `json:"featured"`
	OpenedAt interface{} `json:"opened_at,omitempty"`
}

// PublicOfferView 买家可见报价，带剩余量
type PublicOfferView struct {
	ID             uint            `json:"id"`
	ProductID      uint            `json:"product_id"`
	PricePerVial   models.Money    `json:"price_per_vial"`
	BoxSize        int             `json:"box_size"`
	RemainingUnits int             `json:"remaining_units"`
	SoldOut        bool            `json:"sold_out"`
	Product        *models.Product `json:"product,omitempty"`
}

// GetBatches 买家批次列表（draft/closed 不可见）
func (h *Handler) GetBatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	batches, total, err := h.BatchService.ListOpenForBuyers(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	views := make([]PublicBatchView, 0, len(batches))
	for _, b := range batches {
		views = append(views, PublicBatchView{
			ID:       b.ID,
			Slug:     b.Slug,
			Title:    b.TitleJSON,
			Notice:   b.NoticeJSON,
			Phase:    b.Phase,
			Featured: b.Featured,
			OpenedAt: b.OpenedAt,
		})
	}
	response.SuccessWithPage(c, gin.H{"items": views}, response.NewPagination(page, pageSize, total))
}

// GetBatch 买家批次详情
func (h *Handler) GetBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.BatchService.GetByID(batchID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	// 草稿与已关闭批次对买家不可见
	if batch.Phase == constants.BatchPhaseDraft || batch.Phase == constants.BatchPhaseClosed {
		respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
		return
	}
	response.Success(c, PublicBatchView{
		ID:       batch.ID,
		Slug:     batch.Slug,
		Title:    batch.TitleJSON,
		Notice:   batch.NoticeJSON,
		Phase:    batch.Phase,
		Featured: batch.Featured,
		OpenedAt: batch.OpenedAt,
	})
}

// GetBatchOffers 批次内在售报价列表，剩余量仅供展示参考
func (h *Handler) GetBatchOffers(c *gin.Context) {
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	offers, err := h.OfferService.ListByBatch(batchID, true)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			respondError(c, response.CodeNotFound, "error.batch_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	views := make([]PublicOfferView, 0, len(offers))
	for i := range offers {
		offer := offers[i]
		remaining := offer.RemainingUnits()
		views = append(views, PublicOfferView{
			ID:             offer.ID,
			ProductID:      offer.ProductID,
			PricePerVial:   offer.PricePerVial,
			BoxSize:        offer.BoxSize,
			RemainingUnits: remaining,
			SoldOut:        offer.CapacityUnits() > 0 && remaining == 0,
			Product:        offer.Product,
		})
	}
	response.Success(c, gin.H{"items": views})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
