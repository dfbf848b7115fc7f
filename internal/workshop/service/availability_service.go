package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// availabilityCacheTTL 备料检查结果的缓存时长。任何库存变更都会使全部
// 缓存结果失效（见 InvalidateStock），TTL 只是兜底。
const availabilityCacheTTL = 30 * time.Second

// availabilityVersionKey 库存版本号。缓存键带上版本号，库存一变版本号
// 自增，旧键整体作废，不用逐个扫描删除。
const availabilityVersionKey = "workshop:availability:ver"

type AvailabilityService struct {
	orderRepo *repository.OrderRepository
	stockRepo *repository.StockRepository
	rdb       *redis.Client
}

func NewAvailabilityService(orderRepo *repository.OrderRepository, stockRepo *repository.StockRepository, rdb *redis.Client) *AvailabilityService {
	return &AvailabilityService{orderRepo: orderRepo, stockRepo: stockRepo, rdb: rdb}
}

// requirementKey 需求分组键：同一目录定义不同尺寸是两条独立需求
type requirementKey struct {
	DefinitionID string
	Width        float64
	Height       float64
	HasDims      bool
}

// ComputeOrderAvailability 汇总一张订单的物料需求并对照现有库存逐条判定。
// 只读、无副作用，可在每次配料切割后重复调用观察状态翻转。
// 没有目录定义引用的配方行不参与判定（遗留数据缺口，见设计文档）。
func (s *AvailabilityService) ComputeOrderAvailability(ctx context.Context, orderID string) ([]entity.MaterialRequirement, error) {
	key := s.cacheKey(ctx, orderID)
	if cached, ok := s.cacheGet(ctx, key); ok {
		return cached, nil
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("订单不存在: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("读取订单失败: %w", err)
	}

	// 按 (目录定义, 宽, 高) 汇总需求量
	groups := make(map[requirementKey]*entity.MaterialRequirement)
	var keys []requirementKey
	for _, item := range order.Items {
		if item.Product == nil {
			continue
		}
		for _, ing := range item.Product.Ingredients {
			if ing.ItemDefinitionID == nil || ing.ItemDefinition == nil {
				continue
			}
			key := requirementKey{DefinitionID: *ing.ItemDefinitionID}
			if ing.Width != nil && ing.Height != nil {
				key.Width = *ing.Width
				key.Height = *ing.Height
				key.HasDims = true
			}
			required := item.Quantity * ing.Quantity
			if g, ok := groups[key]; ok {
				g.Quantity += required
			} else {
				groups[key] = &entity.MaterialRequirement{
					ItemDefinitionID: *ing.ItemDefinitionID,
					Name:             ing.ItemDefinition.Name,
					Category:         ing.ItemDefinition.Category,
					Quantity:         required,
					Width:            ing.Width,
					Height:           ing.Height,
				}
				keys = append(keys, key)
			}
		}
	}

	requirements := make([]entity.MaterialRequirement, 0, len(keys))
	for _, key := range keys {
		req := groups[key]
		if err := s.classify(req, key); err != nil {
			return nil, err
		}
		requirements = append(requirements, *req)
	}

	s.cacheSet(ctx, key, requirements)
	return requirements, nil
}

// classify 对照可用库存给一条需求定状态
func (s *AvailabilityService) classify(req *entity.MaterialRequirement, key requirementKey) error {
	needed := int64(math.Ceil(req.Quantity))

	if req.Category.RequiresDimensions() && key.HasDims {
		exact, err := s.stockRepo.CountAvailableExact(key.DefinitionID, key.Width, key.Height)
		if err != nil {
			return fmt.Errorf("统计精确库存失败: %w", err)
		}
		larger, err := s.stockRepo.CountAvailableLarger(key.DefinitionID, key.Width, key.Height)
		if err != nil {
			return fmt.Errorf("统计可切库存失败: %w", err)
		}
		req.ExactCount = exact
		req.LargerCount = larger
		switch {
		case exact >= needed:
			req.Status = entity.RequirementReady
		case exact+larger > 0:
			req.Status = entity.RequirementCutNeeded
		default:
			req.Status = entity.RequirementMissing
		}
		return nil
	}

	// 配件类不存在"可切"，只有够或不够
	count, err := s.stockRepo.CountAvailable(key.DefinitionID)
	if err != nil {
		return fmt.Errorf("统计库存失败: %w", err)
	}
	req.ExactCount = count
	if count >= needed {
		req.Status = entity.RequirementReady
	} else {
		req.Status = entity.RequirementMissing
	}
	return nil
}

// InvalidateOrder 使某订单的缓存结果失效
func (s *AvailabilityService) InvalidateOrder(ctx context.Context, orderID string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, s.cacheKey(ctx, orderID))
}

// InvalidateStock 库存变更后调用，使全部订单的缓存结果失效。
// 入库、手动切割、配料切割、订单流转的库存副作用都会影响
// 任意订单的备料判定，不能只失效当前订单。
func (s *AvailabilityService) InvalidateStock(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	s.rdb.Incr(ctx, availabilityVersionKey)
}

// cacheKey 带库存版本号的缓存键。版本号缺失按 0 处理。
func (s *AvailabilityService) cacheKey(ctx context.Context, orderID string) string {
	version := "0"
	if s.rdb != nil {
		if v, err := s.rdb.Get(ctx, availabilityVersionKey).Result(); err == nil && v != "" {
			version = v
		}
	}
	return "workshop:availability:" + version + ":" + orderID
}

func (s *AvailabilityService) cacheGet(ctx context.Context, key string) ([]entity.MaterialRequirement, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, key).Result()
	if err != nil || raw == "" {
		return nil, false
	}
	var reqs []entity.MaterialRequirement
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, false
	}
	return reqs, true
}

func (s *AvailabilityService) cacheSet(ctx context.Context, key string, reqs []entity.MaterialRequirement) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(reqs)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, key, raw, availabilityCacheTTL)
}
