package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T) (*gorm.DB, *OrderService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	availability := NewAvailabilityService(repos.Order, repos.Stock, nil)
	svc := NewOrderService(repos.Order, repos.Product, availability, zap.NewNop())
	return db, svc
}

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{entity.OrderStatusDraft, entity.OrderStatusInProgress, true},
		{entity.OrderStatusDraft, entity.OrderStatusCompleted, false},
		{entity.OrderStatusDraft, entity.OrderStatusCancelled, true},
		{entity.OrderStatusInProgress, entity.OrderStatusCompleted, true},
		{entity.OrderStatusInProgress, entity.OrderStatusDraft, true},
		{entity.OrderStatusInProgress, entity.OrderStatusCancelled, true},
		{entity.OrderStatusCompleted, entity.OrderStatusInProgress, true},
		{entity.OrderStatusCompleted, entity.OrderStatusDraft, false},
		{entity.OrderStatusCompleted, entity.OrderStatusCancelled, true},
		{entity.OrderStatusCancelled, entity.OrderStatusDraft, true},
		{entity.OrderStatusCancelled, entity.OrderStatusInProgress, false},
		{entity.OrderStatusCancelled, entity.OrderStatusCompleted, false},
		// 取消兜底：即使状态表没列出也允许进入 CANCELLED
		{entity.OrderStatusCancelled, entity.OrderStatusCancelled, true},
	}
	for _, tc := range cases {
		if got := transitionAllowed(tc.from, tc.to); got != tc.want {
			t.Errorf("transitionAllowed(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	db, svc := setupOrderTest(t)
	order := testutil.SeedOrder(t, db, "测试订单")

	_, err := svc.Transition(context.Background(), order.ID, entity.OrderStatusCompleted)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for DRAFT -> COMPLETED, got %v", err)
	}

	var got entity.Order
	if err := db.First(&got, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("Failed to reload order: %v", err)
	}
	if got.Status != entity.OrderStatusDraft {
		t.Errorf("order status changed on rejected transition: %s", got.Status)
	}
}

func TestTransitionReserveConsumeReleaseFlow(t *testing.T) {
	db, svc := setupOrderTest(t)
	ctx := context.Background()

	def := testutil.SeedDefinition(t, db, "18mm桦木多层板", entity.CategorySheetMaterial)
	defID := def.ID

	// 三块同定义的料，入库时间依次递增，用于验证最旧优先
	first := testutil.SeedStock(t, db, "桦木板A", 1000, 2000, 500, defID)
	second := testutil.SeedStock(t, db, "桦木板B", 1000, 2000, 500, defID)
	third := testutil.SeedStock(t, db, "桦木板C", 1000, 2000, 500, defID)
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{first.ID, second.ID, third.ID} {
		db.Model(&entity.StockItem{}).Where("id = ?", id).
			Update("created_at", base.Add(time.Duration(i)*time.Minute))
	}

	product := testutil.SeedProduct(t, db, "柜体", 100, entity.ProductIngredient{
		ItemDefinitionID: &defID,
		Quantity:         1,
		Width:            testutil.Float64Ptr(400),
		Height:           testutil.Float64Ptr(600),
	})
	order := testutil.SeedOrder(t, db, "预留测试", testutil.OrderLine{ProductID: product.ID, Quantity: 2})

	// DRAFT -> IN_PROGRESS 预留两件，最旧的两件中签
	result, err := svc.Transition(ctx, order.ID, entity.OrderStatusInProgress)
	if err != nil {
		t.Fatalf("Transition to IN_PROGRESS failed: %v", err)
	}
	if len(result.ShortRequirements) != 0 {
		t.Errorf("expected no shortfall, got %+v", result.ShortRequirements)
	}
	assertReserved(t, db, first.ID, 1)
	assertReserved(t, db, second.ID, 1)
	assertReserved(t, db, third.ID, 0)

	// IN_PROGRESS -> COMPLETED 消耗已预留件
	if _, err := svc.Transition(ctx, order.ID, entity.OrderStatusCompleted); err != nil {
		t.Fatalf("Transition to COMPLETED failed: %v", err)
	}
	assertStockStatus(t, db, first.ID, entity.StockStatusConsumed)
	assertStockStatus(t, db, second.ID, entity.StockStatusConsumed)
	assertStockStatus(t, db, third.ID, entity.StockStatusAvailable)
	assertReserved(t, db, first.ID, 0)
	assertReserved(t, db, second.ID, 0)

	// COMPLETED -> IN_PROGRESS 重开：重新预留，只剩一件可用
	result, err = svc.Transition(ctx, order.ID, entity.OrderStatusInProgress)
	if err != nil {
		t.Fatalf("Reopen to IN_PROGRESS failed: %v", err)
	}
	if len(result.ShortRequirements) != 1 {
		t.Fatalf("expected 1 shortfall after reopen, got %+v", result.ShortRequirements)
	}
	if sr := result.ShortRequirements[0]; sr.Required != 2 || sr.Covered != 1 {
		t.Errorf("shortfall = required %d covered %d, want 2/1", sr.Required, sr.Covered)
	}
	assertReserved(t, db, third.ID, 1)

	// IN_PROGRESS -> CANCELLED 释放预留
	if _, err := svc.Transition(ctx, order.ID, entity.OrderStatusCancelled); err != nil {
		t.Fatalf("Transition to CANCELLED failed: %v", err)
	}
	assertReserved(t, db, third.ID, 0)
	assertStockStatus(t, db, third.ID, entity.StockStatusAvailable)
}

// 状态校验基于事务内重读的当前状态：重复投产必须被拒，
// 库存副作用不能施加第二次
func TestTransitionRepeatedInProgress(t *testing.T) {
	db, svc := setupOrderTest(t)
	ctx := context.Background()

	def := testutil.SeedDefinition(t, db, "18mm桦木多层板", entity.CategorySheetMaterial)
	defID := def.ID
	testutil.SeedStock(t, db, "桦木板", 1000, 2000, 500, defID)
	testutil.SeedStock(t, db, "桦木板", 1000, 2000, 500, defID)

	product := testutil.SeedProduct(t, db, "柜体", 100, entity.ProductIngredient{
		ItemDefinitionID: &defID, Quantity: 1,
		Width: testutil.Float64Ptr(400), Height: testutil.Float64Ptr(600),
	})
	order := testutil.SeedOrder(t, db, "重复投产", testutil.OrderLine{ProductID: product.ID, Quantity: 1})

	if _, err := svc.Transition(ctx, order.ID, entity.OrderStatusInProgress); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	if _, err := svc.Transition(ctx, order.ID, entity.OrderStatusInProgress); !errors.Is(err, ErrConflict) {
		t.Fatalf("repeated transition: expected ErrConflict, got %v", err)
	}

	var reserved int64
	db.Model(&entity.StockItem{}).
		Where("item_definition_id = ? AND reserved_qty > 0", defID).Count(&reserved)
	if reserved != 1 {
		t.Errorf("reserved count = %d, want 1 (side effects applied once)", reserved)
	}
}

func TestTransitionShortfallDoesNotBlock(t *testing.T) {
	db, svc := setupOrderTest(t)

	def := testutil.SeedDefinition(t, db, "5mm亚克力", entity.CategorySheetMaterial)
	defID := def.ID
	only := testutil.SeedStock(t, db, "亚克力板", 500, 500, 80, defID)

	product := testutil.SeedProduct(t, db, "展示架", 50, entity.ProductIngredient{
		ItemDefinitionID: &defID,
		Quantity:         3,
		Width:            testutil.Float64Ptr(200),
		Height:           testutil.Float64Ptr(200),
	})
	order := testutil.SeedOrder(t, db, "缺料订单", testutil.OrderLine{ProductID: product.ID, Quantity: 1})

	result, err := svc.Transition(context.Background(), order.ID, entity.OrderStatusInProgress)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if result.Order.Status != entity.OrderStatusInProgress {
		t.Errorf("order status = %s, want IN_PROGRESS", result.Order.Status)
	}
	if len(result.ShortRequirements) != 1 {
		t.Fatalf("expected 1 shortfall, got %+v", result.ShortRequirements)
	}
	sr := result.ShortRequirements[0]
	if sr.DefinitionID != defID || sr.Required != 3 || sr.Covered != 1 {
		t.Errorf("shortfall = %+v, want def=%s required=3 covered=1", sr, defID)
	}
	assertReserved(t, db, only.ID, 1)
}

func TestTransitionLegacyNameMatching(t *testing.T) {
	db, svc := setupOrderTest(t)

	// 遗留配方行：直接引用一块没挂目录定义的库存件，按名称匹配
	legacy := testutil.SeedStock(t, db, "老榆木板", 800, 1200, 300, "")
	sameName := testutil.SeedStock(t, db, "老榆木板", 800, 1200, 300, "")
	other := testutil.SeedStock(t, db, "新松木板", 800, 1200, 100, "")

	legacyID := legacy.ID
	product := testutil.SeedProduct(t, db, "老款茶几", 600, entity.ProductIngredient{
		LegacyStockID: &legacyID,
		Quantity:      2,
	})
	order := testutil.SeedOrder(t, db, "遗留订单", testutil.OrderLine{ProductID: product.ID, Quantity: 1})

	result, err := svc.Transition(context.Background(), order.ID, entity.OrderStatusInProgress)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if len(result.ShortRequirements) != 0 {
		t.Errorf("expected no shortfall, got %+v", result.ShortRequirements)
	}
	assertReserved(t, db, legacy.ID, 1)
	assertReserved(t, db, sameName.ID, 1)
	assertReserved(t, db, other.ID, 0)
}

func TestAddItemPriceSnapshot(t *testing.T) {
	db, svc := setupOrderTest(t)

	product := testutil.SeedProduct(t, db, "书架", 199)
	order := testutil.SeedOrder(t, db, "快照订单")

	item, err := svc.AddItem(order.ID, AddOrderItemRequest{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.Price != 199 {
		t.Fatalf("item price = %v, want 199", item.Price)
	}

	// 改产品价格不影响已下的订单行
	if err := db.Model(&entity.Product{}).Where("id = ?", product.ID).Update("price", 299).Error; err != nil {
		t.Fatalf("Failed to update product price: %v", err)
	}
	var got entity.OrderItem
	if err := db.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("Failed to reload order item: %v", err)
	}
	if got.Price != 199 {
		t.Errorf("order item price changed to %v after product price update", got.Price)
	}
}

func TestRemoveItemOwnershipCheck(t *testing.T) {
	db, svc := setupOrderTest(t)

	product := testutil.SeedProduct(t, db, "凳子", 30)
	orderA := testutil.SeedOrder(t, db, "订单A", testutil.OrderLine{ProductID: product.ID, Quantity: 1})
	orderB := testutil.SeedOrder(t, db, "订单B")

	var item entity.OrderItem
	if err := db.First(&item, "order_id = ?", orderA.ID).Error; err != nil {
		t.Fatalf("Failed to load order item: %v", err)
	}

	if err := svc.RemoveItem(orderB.ID, item.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation removing item via wrong order, got %v", err)
	}
	if err := svc.RemoveItem(orderA.ID, item.ID); err != nil {
		t.Errorf("RemoveItem failed: %v", err)
	}
}

func assertReserved(t *testing.T, db *gorm.DB, id string, want float64) {
	t.Helper()
	var item entity.StockItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to load stock item %s: %v", id, err)
	}
	if item.ReservedQty != want {
		t.Errorf("stock %s reserved_qty = %v, want %v", item.Name, item.ReservedQty, want)
	}
}

func assertStockStatus(t *testing.T, db *gorm.DB, id string, want string) {
	t.Helper()
	var item entity.StockItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to load stock item %s: %v", id, err)
	}
	if item.Status != want {
		t.Errorf("stock %s status = %s, want %s", item.Name, item.Status, want)
	}
}
