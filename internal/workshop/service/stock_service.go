package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/cutting"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type StockService struct {
	repo            *repository.StockRepository
	availabilitySvc *AvailabilityService
}

func NewStockService(repo *repository.StockRepository, availabilitySvc *AvailabilityService) *StockService {
	return &StockService{repo: repo, availabilitySvc: availabilitySvc}
}

func (s *StockService) GetByID(id string) (*entity.StockItem, error) {
	item, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("库存件不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

func (s *StockService) List(params repository.StockListParams) ([]entity.StockItem, int64, error) {
	return s.repo.List(params)
}

type BulkAddRequest struct {
	Name             string  `json:"name" binding:"required"`
	Quantity         int     `json:"quantity" binding:"required,gt=0"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	Thickness        float64 `json:"thickness"`
	Price            float64 `json:"price"`
	ItemDefinitionID string  `json:"item_definition_id"`
}

// BulkAdd 批量入库，每件都是独立的物理库存件
func (s *StockService) BulkAdd(ctx context.Context, req BulkAddRequest) ([]entity.StockItem, error) {
	items := make([]entity.StockItem, 0, req.Quantity)
	err := s.repo.DB().Transaction(func(tx *gorm.DB) error {
		for i := 0; i < req.Quantity; i++ {
			item := entity.StockItem{
				ID:        uuid.New().String(),
				Name:      req.Name,
				Width:     req.Width,
				Height:    req.Height,
				Thickness: req.Thickness,
				Price:     req.Price,
				Status:    entity.StockStatusAvailable,
			}
			if req.ItemDefinitionID != "" {
				defID := req.ItemDefinitionID
				item.ItemDefinitionID = &defID
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("入库失败: %w", err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.availabilitySvc.InvalidateStock(ctx)
	return items, nil
}

type ManualCutRequest struct {
	CutWidth            float64 `json:"cut_width" binding:"required,gt=0"`
	CutHeight           float64 `json:"cut_height" binding:"required,gt=0"`
	Direction           string  `json:"direction" binding:"required"`
	SaveMainRemnant     bool    `json:"save_main_remnant"`
	SaveSecondaryRemnant bool   `json:"save_secondary_remnant"`
}

// Cut 手动切割一块可用库存件。原件标记为已消耗，按调用方的保留开关
// 把主/次余料入库为 REMNANT。切割尺寸与原件完全一致时整件消耗，不产生余料。
func (s *StockService) Cut(ctx context.Context, id string, req ManualCutRequest) (string, error) {
	item, err := s.GetByID(id)
	if err != nil {
		return "", err
	}
	if item.Status != entity.StockStatusAvailable {
		return "", fmt.Errorf("库存件 %s 状态为 %s，不能切割: %w", item.Name, item.Status, ErrConflict)
	}

	source := cutting.Piece{Width: item.Width, Height: item.Height, Price: item.Price}
	result, err := cutting.Guillotine(source, req.CutWidth, req.CutHeight, cutting.Direction(req.Direction))
	if err != nil {
		return "", fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	err = s.repo.DB().Transaction(func(tx *gorm.DB) error {
		// 事务内重读状态，并发切割不会消耗同一件两次
		var current entity.StockItem
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return fmt.Errorf("读取原件失败: %w", err)
		}
		if current.Status != entity.StockStatusAvailable {
			return fmt.Errorf("库存件 %s 状态为 %s，不能切割: %w", current.Name, current.Status, ErrConflict)
		}
		item.Status = entity.StockStatusConsumed
		item.ReservedQty = 0
		if err := tx.Save(item).Error; err != nil {
			return fmt.Errorf("更新原件失败: %w", err)
		}
		if result.ConsumeWhole {
			return nil
		}
		if req.SaveMainRemnant && result.Main != nil {
			if err := tx.Create(s.remnantFrom(item, *result.Main)).Error; err != nil {
				return fmt.Errorf("保存主余料失败: %w", err)
			}
		}
		if req.SaveSecondaryRemnant && result.Secondary != nil {
			if err := tx.Create(s.remnantFrom(item, *result.Secondary)).Error; err != nil {
				return fmt.Errorf("保存次余料失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.availabilitySvc.InvalidateStock(ctx)

	if result.ConsumeWhole {
		return fmt.Sprintf("%s 已整件消耗", item.Name), nil
	}
	return fmt.Sprintf("%s 切割完成", item.Name), nil
}

// remnantFrom 由切割结果生成余料库存件。名称叠加余料前缀，
// 余料再切会再叠一层，层数即切割代数。
func (s *StockService) remnantFrom(source *entity.StockItem, piece cutting.Piece) *entity.StockItem {
	parentID := source.ID
	return &entity.StockItem{
		ID:               uuid.New().String(),
		Name:             entity.RemnantPrefix + source.Name,
		Width:            piece.Width,
		Height:           piece.Height,
		Thickness:        source.Thickness,
		Price:            piece.Price,
		Status:           entity.StockStatusRemnant,
		ItemDefinitionID: source.ItemDefinitionID,
		ParentID:         &parentID,
	}
}

var stockExportHeaders = []string{"名称", "状态", "宽(mm)", "高(mm)", "厚(mm)", "价格", "预留", "目录定义"}

// ExportXLSX 导出全量库存清单
func (s *StockService) ExportXLSX() (*excelize.File, string, error) {
	items, err := s.repo.ListAll()
	if err != nil {
		return nil, "", fmt.Errorf("读取库存失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "库存"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range stockExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, item := range items {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Status)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Width)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Height)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Thickness)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Price)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.ReservedQty)
		if item.ItemDefinition != nil {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.ItemDefinition.Name)
		}
	}

	filename := "stock.xlsx"
	return f, filename, nil
}
