package repository

import (
	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"gorm.io/gorm"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) GetByID(id string) (*entity.StockItem, error) {
	var item entity.StockItem
	err := r.db.Preload("ItemDefinition").Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *StockRepository) Create(item *entity.StockItem) error {
	return r.db.Create(item).Error
}

func (r *StockRepository) Update(item *entity.StockItem) error {
	return r.db.Save(item).Error
}

type StockListParams struct {
	Status           string
	ItemDefinitionID string
	Keyword          string
	Page             int
	Size             int
}

func (r *StockRepository) List(params StockListParams) ([]entity.StockItem, int64, error) {
	query := r.db.Model(&entity.StockItem{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ItemDefinitionID != "" {
		query = query.Where("item_definition_id = ?", params.ItemDefinitionID)
	}
	if params.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+params.Keyword+"%")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.StockItem
	err := query.Preload("ItemDefinition").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// ListAll 全量库存，导出用
func (r *StockRepository) ListAll() ([]entity.StockItem, error) {
	var items []entity.StockItem
	err := r.db.Preload("ItemDefinition").Order("created_at ASC").Find(&items).Error
	return items, err
}

// FindMatchingOrLarger 某目录定义下尺寸不小于 minWidth x minHeight 的可用件，
// 按面积从小到大排列，配料时优先给最省料的板。
func (r *StockRepository) FindMatchingOrLarger(definitionID string, minWidth, minHeight float64) ([]entity.StockItem, error) {
	var items []entity.StockItem
	err := r.db.
		Where("item_definition_id = ? AND status = ? AND width >= ? AND height >= ?",
			definitionID, entity.StockStatusAvailable, minWidth, minHeight).
		Order("width * height ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

// CountAvailableExact 精确尺寸的可用件数量
func (r *StockRepository) CountAvailableExact(definitionID string, width, height float64) (int64, error) {
	var count int64
	err := r.db.Model(&entity.StockItem{}).
		Where("item_definition_id = ? AND status = ? AND width = ? AND height = ?",
			definitionID, entity.StockStatusAvailable, width, height).
		Count(&count).Error
	return count, err
}

// CountAvailableLarger 尺寸不小于要求但不是精确尺寸的可用件数量
func (r *StockRepository) CountAvailableLarger(definitionID string, width, height float64) (int64, error) {
	var count int64
	err := r.db.Model(&entity.StockItem{}).
		Where("item_definition_id = ? AND status = ? AND width >= ? AND height >= ?",
			definitionID, entity.StockStatusAvailable, width, height).
		Where("NOT (width = ? AND height = ?)", width, height).
		Count(&count).Error
	return count, err
}

// DB 返回底层db用于事务
func (r *StockRepository) DB() *gorm.DB {
	return r.db
}

// CountAvailable 某目录定义下全部可用件数量（配件类，不看尺寸）
func (r *StockRepository) CountAvailable(definitionID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.StockItem{}).
		Where("item_definition_id = ? AND status = ?", definitionID, entity.StockStatusAvailable).
		Count(&count).Error
	return count, err
}
