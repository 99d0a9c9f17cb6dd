package admin

import (
	"errors"

	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminProducts 药品列表（分页）
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := struct {
		Search     string `form:"search"`
		OnlyActive bool   `form:"only_active"`
	}{}
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     filter.Search,
		OnlyActive: filter.OnlyActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// GetAdminProduct 药品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, product)
}

// ProductRequest 创建/更新药品请求
type ProductRequest struct {
	Slug            string                 `json:"slug" binding:"required"`
	TitleJSON       map[string]interface{} `json:"title" binding:"required"`
	DescriptionJSON map[string]interface{} `json:"description"`
	Images          []string               `json:"images"`
	Tags            []string               `json:"tags"`
	IsActive        *bool                  `json:"is_active"`
	SortOrder       int                    `json:"sort_order"`
}

// CreateProduct 创建药品，slug 全局唯一
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	product := &models.Product{
		Slug:            req.Slug,
		TitleJSON:       models.JSON(req.TitleJSON),
		DescriptionJSON: models.JSON(req.DescriptionJSON),
		Images:          models.StringArray(req.Images),
		Tags:            models.StringArray(req.Tags),
		IsActive:        isActive,
		SortOrder:       req.SortOrder,
	}
	if err := h.ProductService.Create(product); err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			respondError(c, response.CodeConflict, "error.product_slug_conflict", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新药品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	product.Slug = req.Slug
	product.TitleJSON = models.JSON(req.TitleJSON)
	product.DescriptionJSON = models.JSON(req.DescriptionJSON)
	product.Images = models.StringArray(req.Images)
	product.Tags = models.StringArray(req.Tags)
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.SortOrder = req.SortOrder

	if err := h.ProductService.Update(product); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除药品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
