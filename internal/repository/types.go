package repository

import "time"

// BatchListFilter 查询批次列表的过滤条件
type BatchListFilter struct {
	Page         int
	PageSize     int
	Phase        string
	Phases       []string
	Search       string
	OnlyFeatured bool
	WithOffers   bool
}

// OfferListFilter 查询报价列表的过滤条件
type OfferListFilter struct {
	Page        int
	PageSize    int
	BatchID     uint
	ProductID   uint
	OnlyActive  bool
	WithProduct bool
}

// ProductListFilter 查询药品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	BatchID     uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询买家列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PhaseAuditLogListFilter 查询阶段审计日志列表的过滤条件
type PhaseAuditLogListFilter struct {
	Page        int
	PageSize    int
	BatchID     uint
	AdminID     uint
	Source      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
