package entity

import (
	"time"
)

// ItemCategory 物料类目，决定是否按尺寸匹配库存
type ItemCategory string

const (
	CategorySheetMaterial ItemCategory = "SHEET_MATERIAL" // 板材，按宽高匹配
	CategoryComponent     ItemCategory = "COMPONENT"      // 五金/配件，按数量匹配
	CategoryOther         ItemCategory = "OTHER"
)

// RequiresDimensions 板材类目要求配方行给出宽高
func (c ItemCategory) RequiresDimensions() bool {
	return c == CategorySheetMaterial
}

// Valid 类目是否为已知值
func (c ItemCategory) Valid() bool {
	switch c {
	case CategorySheetMaterial, CategoryComponent, CategoryOther:
		return true
	}
	return false
}

// ItemDefinition 物料目录定义（如 "18mm桦木多层板"）
type ItemDefinition struct {
	ID          string            `json:"id" gorm:"primaryKey;size:36"`
	Name        string            `json:"name" gorm:"size:128;not null;uniqueIndex"`
	Category    ItemCategory      `json:"category" gorm:"size:20;not null;default:OTHER"`
	Properties  map[string]string `json:"properties" gorm:"serializer:json"`
	Description string            `json:"description" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (ItemDefinition) TableName() string {
	return "workshop_item_definitions"
}
