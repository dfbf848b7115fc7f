package repository

import (
	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetByID 加载订单及其订单行、产品和配方
func (r *OrderRepository) GetByID(id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Ingredients").
		Preload("Items.Product.Ingredients.ItemDefinition").
		Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) Create(order *entity.Order) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) Update(order *entity.Order) error {
	return r.db.Save(order).Error
}

func (r *OrderRepository) List(status string, page, size int) ([]entity.Order, int64, error) {
	query := r.db.Model(&entity.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var orders []entity.Order
	err := query.Preload("Items").Preload("Items.Product").
		Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&orders).Error
	return orders, total, err
}

func (r *OrderRepository) AddItem(item *entity.OrderItem) error {
	return r.db.Create(item).Error
}

func (r *OrderRepository) GetItem(id string) (*entity.OrderItem, error) {
	var item entity.OrderItem
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *OrderRepository) RemoveItem(id string) error {
	return r.db.Where("id = ?", id).Delete(&entity.OrderItem{}).Error
}

// DB 返回底层db用于事务
func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}
