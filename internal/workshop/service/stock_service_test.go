package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/testutil"
	"gorm.io/gorm"
)

func setupStockTest(t *testing.T) (*gorm.DB, *StockService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	availability := NewAvailabilityService(repos.Order, repos.Stock, nil)
	return db, NewStockService(repos.Stock, availability)
}

func TestBulkAdd(t *testing.T) {
	db, svc := setupStockTest(t)
	def := testutil.SeedDefinition(t, db, "18mm桦木多层板", entity.CategorySheetMaterial)

	items, err := svc.BulkAdd(context.Background(), BulkAddRequest{
		Name:             "桦木板",
		Quantity:         3,
		Width:            1220,
		Height:           2440,
		Thickness:        18,
		Price:            450,
		ItemDefinitionID: def.ID,
	})
	if err != nil {
		t.Fatalf("BulkAdd failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	// 每件是独立库存行，不是数量字段
	var count int64
	db.Model(&entity.StockItem{}).Where("name = ?", "桦木板").Count(&count)
	if count != 3 {
		t.Errorf("expected 3 rows in stock, got %d", count)
	}
	for _, item := range items {
		if item.Status != entity.StockStatusAvailable {
			t.Errorf("item status = %s, want AVAILABLE", item.Status)
		}
		if item.ItemDefinitionID == nil || *item.ItemDefinitionID != def.ID {
			t.Errorf("item definition not set")
		}
	}
}

func TestCutCreatesRemnants(t *testing.T) {
	db, svc := setupStockTest(t)
	source := testutil.SeedStock(t, db, "桦木板", 1000, 2000, 1000, "")

	msg, err := svc.Cut(context.Background(), source.ID, ManualCutRequest{
		CutWidth:             500,
		CutHeight:            1000,
		Direction:            "horizontal",
		SaveMainRemnant:      true,
		SaveSecondaryRemnant: true,
	})
	if err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if !strings.Contains(msg, "切割完成") {
		t.Errorf("unexpected message: %s", msg)
	}

	var got entity.StockItem
	db.First(&got, "id = ?", source.ID)
	if got.Status != entity.StockStatusConsumed {
		t.Errorf("source status = %s, want CONSUMED", got.Status)
	}

	var remnants []entity.StockItem
	db.Where("parent_id = ?", source.ID).Order("height DESC").Find(&remnants)
	if len(remnants) != 2 {
		t.Fatalf("expected 2 remnants, got %d", len(remnants))
	}
	for _, r := range remnants {
		if r.Status != entity.StockStatusRemnant {
			t.Errorf("remnant %s status = %s, want REMNANT", r.Name, r.Status)
		}
		if r.Name != entity.RemnantPrefix+"桦木板" {
			t.Errorf("remnant name = %s, want prefixed source name", r.Name)
		}
	}
	// 横切：主余料 500x2000，次余料 500x1000，价格按面积比例分摊
	main, secondary := remnants[0], remnants[1]
	if main.Width != 500 || main.Height != 2000 {
		t.Errorf("main remnant = %vx%v, want 500x2000", main.Width, main.Height)
	}
	if math.Abs(main.Price-500) > 1e-6 {
		t.Errorf("main remnant price = %v, want 500", main.Price)
	}
	if secondary.Width != 500 || secondary.Height != 1000 {
		t.Errorf("secondary remnant = %vx%v, want 500x1000", secondary.Width, secondary.Height)
	}
	if math.Abs(secondary.Price-250) > 1e-6 {
		t.Errorf("secondary remnant price = %v, want 250", secondary.Price)
	}
}

func TestCutDiscardsUnsavedRemnants(t *testing.T) {
	db, svc := setupStockTest(t)
	source := testutil.SeedStock(t, db, "桦木板", 1000, 2000, 1000, "")

	if _, err := svc.Cut(context.Background(), source.ID, ManualCutRequest{
		CutWidth: 500, CutHeight: 1000, Direction: "vertical",
	}); err != nil {
		t.Fatalf("Cut failed: %v", err)
	}

	var count int64
	db.Model(&entity.StockItem{}).Where("parent_id = ?", source.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no remnants saved, got %d", count)
	}
}

func TestCutConsumeWhole(t *testing.T) {
	db, svc := setupStockTest(t)
	source := testutil.SeedStock(t, db, "桦木板", 500, 1000, 250, "")

	// 尺寸与原件一致：整件消耗，保留开关被忽略
	msg, err := svc.Cut(context.Background(), source.ID, ManualCutRequest{
		CutWidth: 500, CutHeight: 1000, Direction: "horizontal",
		SaveMainRemnant: true, SaveSecondaryRemnant: true,
	})
	if err != nil {
		t.Fatalf("Cut failed: %v", err)
	}
	if !strings.Contains(msg, "整件消耗") {
		t.Errorf("unexpected message: %s", msg)
	}

	var count int64
	db.Model(&entity.StockItem{}).Where("parent_id = ?", source.ID).Count(&count)
	if count != 0 {
		t.Errorf("consume-whole cut produced %d remnants", count)
	}
}

func TestCutValidation(t *testing.T) {
	db, svc := setupStockTest(t)

	ctx := context.Background()
	if _, err := svc.Cut(ctx, "no-such-id", ManualCutRequest{
		CutWidth: 100, CutHeight: 100, Direction: "horizontal",
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	consumed := testutil.SeedStock(t, db, "已消耗板", 1000, 2000, 500, "")
	db.Model(&entity.StockItem{}).Where("id = ?", consumed.ID).
		Update("status", entity.StockStatusConsumed)
	if _, err := svc.Cut(ctx, consumed.ID, ManualCutRequest{
		CutWidth: 100, CutHeight: 100, Direction: "horizontal",
	}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for consumed source, got %v", err)
	}

	source := testutil.SeedStock(t, db, "小板", 300, 300, 50, "")
	if _, err := svc.Cut(ctx, source.ID, ManualCutRequest{
		CutWidth: 400, CutHeight: 100, Direction: "horizontal",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for oversize cut, got %v", err)
	}
	if _, err := svc.Cut(ctx, source.ID, ManualCutRequest{
		CutWidth: 100, CutHeight: 100, Direction: "diagonal",
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad direction, got %v", err)
	}

	// 校验失败不能动原件
	var got entity.StockItem
	db.First(&got, "id = ?", source.ID)
	if got.Status != entity.StockStatusAvailable {
		t.Errorf("source status changed on failed cut: %s", got.Status)
	}
}

func TestExportXLSX(t *testing.T) {
	db, svc := setupStockTest(t)
	def := testutil.SeedDefinition(t, db, "18mm桦木多层板", entity.CategorySheetMaterial)
	testutil.SeedStock(t, db, "桦木板", 1220, 2440, 450, def.ID)
	testutil.SeedStock(t, db, "亚克力板", 500, 500, 80, "")

	f, filename, err := svc.ExportXLSX()
	if err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}
	if filename != "stock.xlsx" {
		t.Errorf("filename = %s", filename)
	}

	head, err := f.GetCellValue("库存", "A1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if head != "名称" {
		t.Errorf("header A1 = %s, want 名称", head)
	}

	rows, err := f.GetRows("库存")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected header + 2 rows, got %d", len(rows))
	}
}
