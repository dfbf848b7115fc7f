package entity

import (
	"time"
)

// OrderStatus 订单状态
const (
	OrderStatusDraft      = "DRAFT"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// Order 生产订单
type Order struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Status    string    `json:"status" gorm:"size:16;not null;default:DRAFT;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "workshop_orders"
}

// OrderItem 订单行。Price 为加入时的产品单价快照，
// 之后修改产品售价不影响已下的订单。
type OrderItem struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	OrderID   string    `json:"order_id" gorm:"size:36;not null;index"`
	ProductID string    `json:"product_id" gorm:"size:36;not null"`
	Quantity  float64   `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Price     float64   `json:"price" gorm:"type:decimal(12,4);default:0"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (OrderItem) TableName() string {
	return "workshop_order_items"
}
