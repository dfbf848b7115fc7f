package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/cutting"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllocationService 把备料检查中"需要切割"的缺口变成一块已预留的精确尺寸件
type AllocationService struct {
	stockRepo       *repository.StockRepository
	orderRepo       *repository.OrderRepository
	availabilitySvc *AvailabilityService
}

func NewAllocationService(stockRepo *repository.StockRepository, orderRepo *repository.OrderRepository, availabilitySvc *AvailabilityService) *AllocationService {
	return &AllocationService{stockRepo: stockRepo, orderRepo: orderRepo, availabilitySvc: availabilitySvc}
}

// CandidateBoard 可作为切割原板的库存件
type CandidateBoard struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Thickness float64 `json:"thickness"`
	Price     float64 `json:"price"`
}

// ListCandidateBoards 按目录定义列出尺寸够切的可用板，最省料的排在前面
func (s *AllocationService) ListCandidateBoards(definitionID string, minWidth, minHeight float64) ([]CandidateBoard, error) {
	if definitionID == "" {
		return nil, fmt.Errorf("缺少目录定义: %w", ErrValidation)
	}
	items, err := s.stockRepo.FindMatchingOrLarger(definitionID, minWidth, minHeight)
	if err != nil {
		return nil, fmt.Errorf("查询候选板失败: %w", err)
	}
	boards := make([]CandidateBoard, 0, len(items))
	for _, item := range items {
		boards = append(boards, CandidateBoard{
			ID:        item.ID,
			Name:      item.Name,
			Width:     item.Width,
			Height:    item.Height,
			Thickness: item.Thickness,
			Price:     item.Price,
		})
	}
	return boards, nil
}

type AllocateCutRequest struct {
	SourceStockID string  `json:"source_stock_id" binding:"required"`
	TargetWidth   float64 `json:"target_width" binding:"required,gt=0"`
	TargetHeight  float64 `json:"target_height" binding:"required,gt=0"`
	Quantity      int     `json:"quantity"`
}

// AllocateCut 从一块原板上按L形切出目标尺寸件并直接预留给订单。
// 目标件是唯一一处"新建即预留"的库存件：预留本身就是分配，
// 没有单独的订单-库存关联表。余料回归公共库存。
// 每次调用只产出一件目标件；需要多件时由调用方重复调用。
func (s *AllocationService) AllocateCut(ctx context.Context, orderID string, req AllocateCutRequest) (string, error) {
	if req.Quantity > 1 {
		return "", fmt.Errorf("每次配料切割只产出一件，数量 %d 不支持: %w", req.Quantity, ErrValidation)
	}

	if _, err := s.orderRepo.GetByID(orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("订单不存在: %w", ErrNotFound)
		}
		return "", fmt.Errorf("读取订单失败: %w", err)
	}

	source, err := s.stockRepo.GetByID(req.SourceStockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("原板不存在: %w", ErrNotFound)
		}
		return "", err
	}
	if source.Status != entity.StockStatusAvailable {
		return "", fmt.Errorf("原板 %s 状态为 %s，不能切割: %w", source.Name, source.Status, ErrConflict)
	}

	piece := cutting.Piece{Width: source.Width, Height: source.Height, Price: source.Price}
	result, err := cutting.LShape(piece, req.TargetWidth, req.TargetHeight)
	if err != nil {
		return "", fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}

	err = s.stockRepo.DB().Transaction(func(tx *gorm.DB) error {
		// 事务内重读状态，并发配料不会消耗同一块原板两次
		var current entity.StockItem
		if err := tx.Where("id = ?", req.SourceStockID).First(&current).Error; err != nil {
			return fmt.Errorf("读取原板失败: %w", err)
		}
		if current.Status != entity.StockStatusAvailable {
			return fmt.Errorf("原板 %s 状态为 %s，不能切割: %w", current.Name, current.Status, ErrConflict)
		}
		source.Status = entity.StockStatusConsumed
		source.ReservedQty = 0
		if err := tx.Save(source).Error; err != nil {
			return fmt.Errorf("消耗原板失败: %w", err)
		}

		parentID := source.ID
		target := &entity.StockItem{
			ID:               uuid.New().String(),
			Name:             source.Name,
			Width:            result.Target.Width,
			Height:           result.Target.Height,
			Thickness:        source.Thickness,
			Price:            result.Target.Price,
			Status:           entity.StockStatusAvailable,
			ReservedQty:      1,
			ItemDefinitionID: source.ItemDefinitionID,
			ParentID:         &parentID,
		}
		if err := tx.Create(target).Error; err != nil {
			return fmt.Errorf("创建目标件失败: %w", err)
		}

		for _, offcut := range result.Offcuts {
			item := &entity.StockItem{
				ID:               uuid.New().String(),
				Name:             entity.RemnantPrefix + source.Name,
				Width:            offcut.Width,
				Height:           offcut.Height,
				Thickness:        source.Thickness,
				Price:            offcut.Price,
				Status:           entity.StockStatusAvailable,
				ItemDefinitionID: source.ItemDefinitionID,
				ParentID:         &parentID,
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("保存余料失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	// 余料回公共库存，别的订单的备料判定也会变，整体失效
	s.availabilitySvc.InvalidateStock(ctx)
	return fmt.Sprintf("已从 %s 切出 %.0fx%.0f 并预留", source.Name, req.TargetWidth, req.TargetHeight), nil
}
