package service

import (
	"strings"

	"github.com/vialpool-next/internal/models"
	"github.com/vialpool-next/internal/repository"
)

// ProductService 药品目录服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建药品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List 药品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetByID 获取药品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotAvailable
	}
	return product, nil
}

// Create 创建药品
func (s *ProductService) Create(product *models.Product) error {
	if product == nil || strings.TrimSpace(product.Slug) == "" {
		return ErrProductNotAvailable
	}
	existing, err := s.productRepo.GetBySlug(product.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrProductNotAvailable
	}
	return s.productRepo.Create(product)
}

// Update 更新药品
func (s *ProductService) Update(product *models.Product) error {
	if product == nil || product.ID == 0 {
		return ErrProductNotAvailable
	}
	return s.productRepo.Update(product)
}

// Delete 删除药品
func (s *ProductService) Delete(id uint) error {
	return s.productRepo.Delete(id)
}
