package repository

import (
	"gorm.io/gorm"
)

// Repositories 仓储集合
type Repositories struct {
	Catalog *CatalogRepository
	Stock   *StockRepository
	Product *ProductRepository
	Order   *OrderRepository
}

// NewRepositories 创建仓储集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Catalog: NewCatalogRepository(db),
		Stock:   NewStockRepository(db),
		Product: NewProductRepository(db),
		Order:   NewOrderRepository(db),
	}
}
