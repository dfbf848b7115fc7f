package entity

import (
	"time"
)

// StockStatus 库存件状态
const (
	StockStatusAvailable = "AVAILABLE" // 可用
	StockStatusConsumed  = "CONSUMED"  // 已消耗
	StockStatusRemnant   = "REMNANT"   // 余料
)

// RemnantPrefix 切割产生的余料命名前缀。多代切割会叠加前缀，
// 保留该行为，前缀层数即切割代数。
const RemnantPrefix = "余料-"

// StockItem 一块具体的物理库存件。板材有宽高厚，配件尺寸可为零。
// ReservedQty 概念上是 0 或 1：这块料是否已被某张订单占用。
// 预留不记录订单号，释放时按最旧优先挑选（见 OrderService.Transition）。
type StockItem struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	Name             string    `json:"name" gorm:"size:200;not null;index"`
	Width            float64   `json:"width" gorm:"type:decimal(10,2);default:0"`
	Height           float64   `json:"height" gorm:"type:decimal(10,2);default:0"`
	Thickness        float64   `json:"thickness" gorm:"type:decimal(10,2);default:0"`
	Price            float64   `json:"price" gorm:"type:decimal(12,4);default:0"`
	Status           string    `json:"status" gorm:"size:16;not null;default:AVAILABLE;index"`
	ReservedQty      float64   `json:"reserved_qty" gorm:"type:decimal(12,4);default:0"`
	ItemDefinitionID *string   `json:"item_definition_id" gorm:"size:36;index"`
	ParentID         *string   `json:"parent_id" gorm:"size:36"` // 切割来源件
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	ItemDefinition *ItemDefinition `json:"item_definition,omitempty" gorm:"foreignKey:ItemDefinitionID"`
}

func (StockItem) TableName() string {
	return "workshop_stock_items"
}

// Area 面积（平方毫米）
func (s *StockItem) Area() float64 {
	return s.Width * s.Height
}
