package repository

import (
	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetByID(id string) (*entity.ItemDefinition, error) {
	var def entity.ItemDefinition
	err := r.db.Where("id = ?", id).First(&def).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *CatalogRepository) GetByName(name string) (*entity.ItemDefinition, error) {
	var def entity.ItemDefinition
	err := r.db.Where("name = ?", name).First(&def).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *CatalogRepository) Create(def *entity.ItemDefinition) error {
	return r.db.Create(def).Error
}

func (r *CatalogRepository) Update(def *entity.ItemDefinition) error {
	return r.db.Save(def).Error
}

type CatalogListParams struct {
	Category string
	Keyword  string
	Page     int
	Size     int
}

func (r *CatalogRepository) List(params CatalogListParams) ([]entity.ItemDefinition, int64, error) {
	query := r.db.Model(&entity.ItemDefinition{})
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
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
	var defs []entity.ItemDefinition
	err := query.Order("name ASC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&defs).Error
	return defs, total, err
}

// Delete 删除目录定义并置空所有引用。库存件与配方行保留，
// 之后走遗留的按名称匹配逻辑。
func (r *CatalogRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.StockItem{}).
			Where("item_definition_id = ?", id).
			Update("item_definition_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.ProductIngredient{}).
			Where("item_definition_id = ?", id).
			Update("item_definition_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.ItemDefinition{}).Error
	})
}
