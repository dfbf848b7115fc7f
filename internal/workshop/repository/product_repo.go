package repository

import (
	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(id string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.Preload("Ingredients").Preload("Ingredients.ItemDefinition").
		Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) Create(product *entity.Product) error {
	return r.db.Create(product).Error
}

func (r *ProductRepository) Update(product *entity.Product) error {
	return r.db.Save(product).Error
}

func (r *ProductRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&entity.ProductIngredient{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Product{}).Error
	})
}

func (r *ProductRepository) List(keyword string, page, size int) ([]entity.Product, int64, error) {
	query := r.db.Model(&entity.Product{})
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var products []entity.Product
	err := query.Preload("Ingredients").Preload("Ingredients.ItemDefinition").
		Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&products).Error
	return products, total, err
}

func (r *ProductRepository) AddIngredient(ing *entity.ProductIngredient) error {
	return r.db.Create(ing).Error
}

func (r *ProductRepository) GetIngredient(id string) (*entity.ProductIngredient, error) {
	var ing entity.ProductIngredient
	err := r.db.Where("id = ?", id).First(&ing).Error
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (r *ProductRepository) RemoveIngredient(id string) error {
	return r.db.Where("id = ?", id).Delete(&entity.ProductIngredient{}).Error
}
