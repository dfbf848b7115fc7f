package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MatchKey 预留匹配键：优先按目录定义ID匹配库存；
// 配方行只有遗留库存引用且该库存件也没挂目录定义时，退回按名称匹配。
// 两种策略互斥，DefinitionID 非空时 Name 不参与。
type MatchKey struct {
	DefinitionID string
	Name         string
}

// ByDefinition 是否按目录定义匹配
func (k MatchKey) ByDefinition() bool {
	return k.DefinitionID != ""
}

func (k MatchKey) String() string {
	if k.ByDefinition() {
		return "def:" + k.DefinitionID
	}
	return "name:" + k.Name
}

// 状态流转表。CANCELLED 额外允许从任意状态进入（见 transitionAllowed）。
var allowedTransitions = map[string][]string{
	entity.OrderStatusDraft:      {entity.OrderStatusInProgress, entity.OrderStatusCancelled},
	entity.OrderStatusInProgress: {entity.OrderStatusCompleted, entity.OrderStatusDraft, entity.OrderStatusCancelled},
	entity.OrderStatusCompleted:  {entity.OrderStatusCancelled, entity.OrderStatusInProgress},
	entity.OrderStatusCancelled:  {entity.OrderStatusDraft},
}

func transitionAllowed(from, to string) bool {
	if to == entity.OrderStatusCancelled {
		return true
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

var transitionMessages = map[string]string{
	entity.OrderStatusDraft:      "订单已退回草稿",
	entity.OrderStatusInProgress: "订单已进入生产，物料已预留",
	entity.OrderStatusCompleted:  "订单已完工，物料已消耗",
	entity.OrderStatusCancelled:  "订单已取消",
}

type OrderService struct {
	repo            *repository.OrderRepository
	productRepo     *repository.ProductRepository
	availabilitySvc *AvailabilityService
	logger          *zap.Logger
}

func NewOrderService(repo *repository.OrderRepository, productRepo *repository.ProductRepository, availabilitySvc *AvailabilityService, logger *zap.Logger) *OrderService {
	return &OrderService{repo: repo, productRepo: productRepo, availabilitySvc: availabilitySvc, logger: logger}
}

func (s *OrderService) GetByID(id string) (*entity.Order, error) {
	order, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("订单不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(status string, page, size int) ([]entity.Order, int64, error) {
	return s.repo.List(status, page, size)
}

type CreateOrderRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *OrderService) Create(req CreateOrderRequest) (*entity.Order, error) {
	order := &entity.Order{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Status: entity.OrderStatusDraft,
	}
	if err := s.repo.Create(order); err != nil {
		return nil, fmt.Errorf("创建订单失败: %w", err)
	}
	return order, nil
}

func (s *OrderService) Rename(id, name string) (*entity.Order, error) {
	order, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	order.Name = name
	if err := s.repo.Update(order); err != nil {
		return nil, fmt.Errorf("更新订单失败: %w", err)
	}
	return order, nil
}

type AddOrderItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
}

// AddItem 添加订单行，价格取当前产品售价快照
func (s *OrderService) AddItem(orderID string, req AddOrderItemRequest) (*entity.OrderItem, error) {
	if _, err := s.GetByID(orderID); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("产品不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	item := &entity.OrderItem{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
		Price:     product.Price,
	}
	if err := s.repo.AddItem(item); err != nil {
		return nil, fmt.Errorf("添加订单行失败: %w", err)
	}
	return item, nil
}

func (s *OrderService) RemoveItem(orderID, itemID string) error {
	item, err := s.repo.GetItem(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("订单行不存在: %w", ErrNotFound)
		}
		return err
	}
	if item.OrderID != orderID {
		return fmt.Errorf("订单行不属于该订单: %w", ErrValidation)
	}
	return s.repo.RemoveItem(itemID)
}

// ShortRequirement 预留不足的需求，随流转结果返回给调用方
type ShortRequirement struct {
	DefinitionID string  `json:"definition_id,omitempty"`
	Name         string  `json:"name,omitempty"`
	Required     int     `json:"required"`
	Covered      int     `json:"covered"`
}

// TransitionResult 状态流转结果
type TransitionResult struct {
	Order             *entity.Order      `json:"order"`
	Message           string             `json:"message"`
	ShortRequirements []ShortRequirement `json:"short_requirements"`
}

// Transition 订单状态流转。状态写入与全部库存副作用在同一事务内提交：
//
//	DRAFT->IN_PROGRESS / COMPLETED->IN_PROGRESS: 预留物料
//	IN_PROGRESS->COMPLETED:                      消耗已预留物料
//	IN_PROGRESS->DRAFT / IN_PROGRESS->CANCELLED: 释放预留
//
// 预留是尽力而为：物料不够不阻止流转，缺口记入返回结果。
// 释放按最旧优先挑选预留件，预留不记订单号，同规格物料被多张订单
// 争用时可能释放到别的订单预留的那一件（已知局限，与原系统一致）。
func (s *OrderService) Transition(ctx context.Context, orderID, target string) (*TransitionResult, error) {
	order, err := s.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	var short []ShortRequirement
	err = s.repo.DB().Transaction(func(tx *gorm.DB) error {
		// 状态校验在事务内基于重读的当前状态做，
		// 两个并发流转不会都通过校验后重复施加库存副作用
		var current entity.Order
		if err := tx.Where("id = ?", orderID).First(&current).Error; err != nil {
			return fmt.Errorf("读取订单失败: %w", err)
		}
		from := current.Status
		if !transitionAllowed(from, target) {
			return fmt.Errorf("订单不能从 %s 流转到 %s: %w", from, target, ErrConflict)
		}
		switch {
		case target == entity.OrderStatusInProgress:
			// DRAFT 或 COMPLETED 重开，机制相同
			short, err = s.reserve(tx, order)
			if err != nil {
				return err
			}
		case from == entity.OrderStatusInProgress && target == entity.OrderStatusCompleted:
			if err := s.consume(tx, order); err != nil {
				return err
			}
		case from == entity.OrderStatusInProgress &&
			(target == entity.OrderStatusDraft || target == entity.OrderStatusCancelled):
			if err := s.release(tx, order); err != nil {
				return err
			}
		}
		order.Status = target
		return tx.Save(order).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("状态流转失败: %w", err)
	}

	// 预留不改库存计数，消耗改；统一整体失效，省去按流转类型区分
	s.availabilitySvc.InvalidateStock(ctx)

	for _, sr := range short {
		s.logger.Warn("物料预留不足",
			zap.String("order_id", orderID),
			zap.String("definition_id", sr.DefinitionID),
			zap.String("name", sr.Name),
			zap.Int("required", sr.Required),
			zap.Int("covered", sr.Covered),
		)
	}

	if short == nil {
		short = []ShortRequirement{}
	}
	return &TransitionResult{
		Order:             order,
		Message:           transitionMessages[target],
		ShortRequirements: short,
	}, nil
}

// demand 一组匹配键下的需求量。keys 保持遍历顺序，结果才可复现。
type demand struct {
	keys []MatchKey
	qty  map[MatchKey]float64
}

// buildDemand 汇总订单的预留需求。预留只看匹配键不看尺寸：
// 备料检查已把尺寸缺口暴露给用户，这里按件数记账。
func (s *OrderService) buildDemand(tx *gorm.DB, order *entity.Order) (*demand, error) {
	d := &demand{qty: make(map[MatchKey]float64)}
	for _, item := range order.Items {
		if item.Product == nil {
			continue
		}
		for _, ing := range item.Product.Ingredients {
			key, ok, err := s.matchKeyFor(tx, ing)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if _, exists := d.qty[key]; !exists {
				d.keys = append(d.keys, key)
			}
			d.qty[key] += item.Quantity * ing.Quantity
		}
	}
	return d, nil
}

// matchKeyFor 解析一条配方行的匹配键。无目录定义也无遗留引用的行跳过。
func (s *OrderService) matchKeyFor(tx *gorm.DB, ing entity.ProductIngredient) (MatchKey, bool, error) {
	if ing.ItemDefinitionID != nil {
		return MatchKey{DefinitionID: *ing.ItemDefinitionID}, true, nil
	}
	if ing.LegacyStockID == nil {
		return MatchKey{}, false, nil
	}
	var stock entity.StockItem
	if err := tx.Where("id = ?", *ing.LegacyStockID).First(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MatchKey{}, false, nil
		}
		return MatchKey{}, false, fmt.Errorf("读取遗留库存引用失败: %w", err)
	}
	if stock.ItemDefinitionID != nil {
		return MatchKey{DefinitionID: *stock.ItemDefinitionID}, true, nil
	}
	return MatchKey{Name: stock.Name}, true, nil
}

func (s *OrderService) matchScope(tx *gorm.DB, key MatchKey) *gorm.DB {
	q := tx.Model(&entity.StockItem{}).Where("status = ?", entity.StockStatusAvailable)
	if key.ByDefinition() {
		return q.Where("item_definition_id = ?", key.DefinitionID)
	}
	return q.Where("name = ?", key.Name)
}

// reserve 给每组需求挑最旧的未预留可用件打上预留。不足不报错，记缺口。
func (s *OrderService) reserve(tx *gorm.DB, order *entity.Order) ([]ShortRequirement, error) {
	d, err := s.buildDemand(tx, order)
	if err != nil {
		return nil, err
	}
	var short []ShortRequirement
	for _, key := range d.keys {
		need := int(math.Ceil(d.qty[key]))
		var units []entity.StockItem
		if err := s.matchScope(tx, key).
			Where("reserved_qty < 1").
			Order("created_at ASC").Limit(need).
			Find(&units).Error; err != nil {
			return nil, fmt.Errorf("查询可预留库存失败: %w", err)
		}
		for i := range units {
			units[i].ReservedQty = 1
			if err := tx.Save(&units[i]).Error; err != nil {
				return nil, fmt.Errorf("预留库存失败: %w", err)
			}
		}
		if len(units) < need {
			short = append(short, ShortRequirement{
				DefinitionID: key.DefinitionID,
				Name:         key.Name,
				Required:     need,
				Covered:      len(units),
			})
		}
	}
	return short, nil
}

// consume 把已预留件转为已消耗
func (s *OrderService) consume(tx *gorm.DB, order *entity.Order) error {
	return s.drainReserved(tx, order, func(unit *entity.StockItem) {
		unit.Status = entity.StockStatusConsumed
		unit.ReservedQty = 0
	})
}

// release 释放预留，库存件回到未预留的可用状态
func (s *OrderService) release(tx *gorm.DB, order *entity.Order) error {
	return s.drainReserved(tx, order, func(unit *entity.StockItem) {
		unit.ReservedQty = 0
	})
}

func (s *OrderService) drainReserved(tx *gorm.DB, order *entity.Order, apply func(*entity.StockItem)) error {
	d, err := s.buildDemand(tx, order)
	if err != nil {
		return err
	}
	for _, key := range d.keys {
		need := int(math.Ceil(d.qty[key]))
		var units []entity.StockItem
		if err := s.matchScope(tx, key).
			Where("reserved_qty > 0").
			Order("created_at ASC").Limit(need).
			Find(&units).Error; err != nil {
			return fmt.Errorf("查询已预留库存失败: %w", err)
		}
		for i := range units {
			apply(&units[i])
			if err := tx.Save(&units[i]).Error; err != nil {
				return fmt.Errorf("更新库存失败: %w", err)
			}
		}
	}
	return nil
}
