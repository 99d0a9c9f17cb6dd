package main

import (
	"fmt"
	"time"

	"github.com/vialpool-next/internal/config"
	"github.com/vialpool-next/internal/constants"
	"github.com/vialpool-next/internal/logger"
	"github.com/vialpool-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加药品目录
	products := []models.Product{
		{
			Slug: "bpc-157-5mg",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "BPC-157 5mg",
				"en-US": "BPC-157 5mg",
			}),
			DescriptionJSON: models.JSON(map[string]interface{}{
				"zh-CN": "冻干粉，每支 5mg，2-8°C 避光保存",
				"en-US": "Lyophilized powder, 5mg per vial, store at 2-8°C away from light",
			}),
			Tags:      models.StringArray([]string{"修复", "5mg"}),
			IsActive:  true,
			SortOrder: 300,
		},
		{
			Slug: "tb-500-10mg",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "TB-500 10mg",
				"en-US": "TB-500 10mg",
			}),
			DescriptionJSON: models.JSON(map[string]interface{}{
				"zh-CN": "冻干粉，每支 10mg，复溶后冷藏使用",
				"en-US": "Lyophilized powder, 10mg per vial, refrigerate after reconstitution",
			}),
			Tags:      models.StringArray([]string{"修复", "10mg"}),
			IsActive:  true,
			SortOrder: 280,
		},
		{
			Slug: "ghk-cu-50mg",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "GHK-Cu 50mg",
				"en-US": "GHK-Cu 50mg",
			}),
			DescriptionJSON: models.JSON(map[string]interface{}{
				"zh-CN": "铜肽冻干粉，每支 50mg",
				"en-US": "Copper peptide lyophilized powder, 50mg per vial",
			}),
			Tags:      models.StringArray([]string{"皮肤", "50mg"}),
			IsActive:  true,
			SortOrder: 260,
		},
		{
			Slug: "demo-inactive-vial",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "演示药品-已停用",
				"en-US": "Demo Product - Inactive",
			}),
			DescriptionJSON: models.JSON(map[string]interface{}{
				"zh-CN": "用于演示停用药品不可加入批次。",
				"en-US": "For demoing that inactive products cannot join batches.",
			}),
			IsActive:  false,
			SortOrder: 100,
		},
	}

	for _, prod := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", prod.Slug)
		}
	}

	productIDs := map[string]uint{}
	var productList []models.Product
	if err := models.DB.Unscoped().Where("slug IN ?", []string{"bpc-157-5mg", "tb-500-10mg", "ghk-cu-50mg"}).Find(&productList).Error; err != nil {
		stdLog.Printf("Failed to load products: %v", err)
	}
	for _, prod := range productList {
		productIDs[prod.Slug] = prod.ID
	}

	// 添加演示批次：一个处于 filling，可直接下单；一个 draft 作后台演示
	now := time.Now()
	openedAt := now.Add(-48 * time.Hour)
	batches := []models.Batch{
		{
			Slug: "2026-september",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "2026 年 9 月拼团批次",
				"en-US": "September 2026 Group Batch",
			}),
			NoticeJSON: models.JSON(map[string]interface{}{
				"zh-CN": "预计 9 月 20 日截单，10 月中旬到货。",
				"en-US": "Orders close around Sep 20, arrival expected mid October.",
			}),
			Phase:     constants.BatchPhaseFilling,
			OpenedAt:  &openedAt,
			Featured:  true,
			SortOrder: 200,
		},
		{
			Slug: "2026-october-draft",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "2026 年 10 月批次（筹备中）",
				"en-US": "October 2026 Batch (Draft)",
			}),
			Phase:     constants.BatchPhaseDraft,
			SortOrder: 100,
		},
	}

	for _, batch := range batches {
		var existing models.Batch
		if err := models.DB.Where("slug = ?", batch.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&batch).Error; err != nil {
				stdLog.Printf("Failed to create batch %s: %v", batch.Slug, err)
			} else {
				stdLog.Printf("Created batch: %s (%s)", batch.Slug, batch.Phase)
			}
		} else {
			stdLog.Printf("Batch already exists: %s", batch.Slug)
		}
	}

	var fillingBatch models.Batch
	if err := models.DB.Where("slug = ?", "2026-september").First(&fillingBatch).Error; err != nil {
		stdLog.Fatalf("Failed to load filling batch: %v", err)
	}

	// 批次内报价
	offers := []struct {
		ProductSlug    string
		Price          float64
		BoxSize        int
		BoxesAvailable int
		SortOrder      int
	}{
		{ProductSlug: "bpc-157-5mg", Price: 180, BoxSize: 10, BoxesAvailable: 6, SortOrder: 300},
		{ProductSlug: "tb-500-10mg", Price: 260, BoxSize: 10, BoxesAvailable: 4, SortOrder: 280},
		{ProductSlug: "ghk-cu-50mg", Price: 150, BoxSize: 5, BoxesAvailable: 8, SortOrder: 260},
	}

	for _, plan := range offers {
		productID := productIDs[plan.ProductSlug]
		if productID == 0 {
			stdLog.Printf("Skip offer for %s: product not found", plan.ProductSlug)
			continue
		}
		var existing models.Offer
		if err := models.DB.Where("batch_id = ? AND product_id = ?", fillingBatch.ID, productID).First(&existing).Error; err != nil {
			offer := models.Offer{
				BatchID:        fillingBatch.ID,
				ProductID:      productID,
				PricePerVial:   models.NewMoneyFromDecimal(decimal.NewFromFloat(plan.Price)),
				BoxSize:        plan.BoxSize,
				BoxesAvailable: plan.BoxesAvailable,
				IsActive:       true,
				SortOrder:      plan.SortOrder,
			}
			if err := models.DB.Create(&offer).Error; err != nil {
				stdLog.Printf("Failed to create offer for %s: %v", plan.ProductSlug, err)
			} else {
				stdLog.Printf("Created offer: %s x %d boxes of %d", plan.ProductSlug, plan.BoxesAvailable, plan.BoxSize)
			}
		} else {
			stdLog.Printf("Offer already exists: %s", plan.ProductSlug)
		}
	}

	// 白名单买家，参团码明文只在首次建档时打印
	buyers := []struct {
		Phone       string
		DisplayName string
		AccessCode  string
		Locale      string
	}{
		{Phone: "13800000001", DisplayName: "演示买家一", AccessCode: "DEMO2345", Locale: constants.LocaleZhCN},
		{Phone: "13800000002", DisplayName: "演示买家二", AccessCode: "DEMO6789", Locale: constants.LocaleEnUS},
	}

	for _, plan := range buyers {
		var existing models.User
		if err := models.DB.Where("phone = ?", plan.Phone).First(&existing).Error; err != nil {
			hash, hashErr := bcrypt.GenerateFromPassword([]byte(plan.AccessCode), bcrypt.DefaultCost)
			if hashErr != nil {
				stdLog.Printf("Failed to hash access code for %s: %v", plan.Phone, hashErr)
				continue
			}
			user := models.User{
				Phone:          plan.Phone,
				AccessCodeHash: string(hash),
				DisplayName:    plan.DisplayName,
				Locale:         plan.Locale,
				Status:         constants.UserStatusActive,
			}
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create buyer %s: %v", plan.Phone, err)
			} else {
				stdLog.Printf("Created buyer: %s access_code=%s", plan.Phone, plan.AccessCode)
			}
		} else {
			stdLog.Printf("Buyer already exists: %s", plan.Phone)
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 4 Products (3 active + 1 inactive demo)")
	fmt.Println("- 2 Batches (1 filling + 1 draft)")
	fmt.Println("- 3 Offers in the filling batch")
	fmt.Println("- 2 Whitelisted demo buyers")
}
