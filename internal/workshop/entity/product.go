package entity

import (
	"time"
)

// Product 成品定义，持有一组配方行（BOM）
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Price     float64   `json:"price" gorm:"type:decimal(12,4);default:0"`
	Notes     string    `json:"notes" gorm:"type:text"`
	ImageKey  *string   `json:"image_key" gorm:"size:255"` // 对象存储中的图片key
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Ingredients []ProductIngredient `json:"ingredients,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "workshop_products"
}

// ProductIngredient 配方行：每生产一件产品需要的一种物料。
// ItemDefinitionID 与 LegacyStockID 二选一：新数据引用目录定义，
// 老数据直接引用当年录入的库存件。
// 板材类目要求给出 Width/Height。
type ProductIngredient struct {
	ID               string   `json:"id" gorm:"primaryKey;size:36"`
	ProductID        string   `json:"product_id" gorm:"size:36;not null;index"`
	ItemDefinitionID *string  `json:"item_definition_id" gorm:"size:36;index"`
	LegacyStockID    *string  `json:"legacy_stock_id" gorm:"size:36"`
	Quantity         float64  `json:"quantity" gorm:"type:decimal(12,4);not null"`
	Width            *float64 `json:"width" gorm:"type:decimal(10,2)"`
	Height           *float64 `json:"height" gorm:"type:decimal(10,2)"`

	ItemDefinition *ItemDefinition `json:"item_definition,omitempty" gorm:"foreignKey:ItemDefinitionID"`
}

func (ProductIngredient) TableName() string {
	return "workshop_product_ingredients"
}
