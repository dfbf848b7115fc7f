package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogService struct {
	repo *repository.CatalogRepository
}

func NewCatalogService(repo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) GetByID(id string) (*entity.ItemDefinition, error) {
	def, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("目录定义不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return def, nil
}

func (s *CatalogService) List(params repository.CatalogListParams) ([]entity.ItemDefinition, int64, error) {
	return s.repo.List(params)
}

type ItemDefinitionRequest struct {
	Name        string            `json:"name" binding:"required"`
	Category    string            `json:"category" binding:"required"`
	Properties  map[string]string `json:"properties"`
	Description string            `json:"description"`
}

func (s *CatalogService) Create(req ItemDefinitionRequest) (*entity.ItemDefinition, error) {
	category := entity.ItemCategory(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("未知的物料类目: %s: %w", req.Category, ErrValidation)
	}
	def := &entity.ItemDefinition{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Category:    category,
		Properties:  req.Properties,
		Description: req.Description,
	}
	if err := s.repo.Create(def); err != nil {
		return nil, fmt.Errorf("创建目录定义失败: %w", err)
	}
	return def, nil
}

func (s *CatalogService) Update(id string, req ItemDefinitionRequest) (*entity.ItemDefinition, error) {
	def, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	category := entity.ItemCategory(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("未知的物料类目: %s: %w", req.Category, ErrValidation)
	}
	def.Name = req.Name
	def.Category = category
	def.Properties = req.Properties
	def.Description = req.Description
	if err := s.repo.Update(def); err != nil {
		return nil, fmt.Errorf("更新目录定义失败: %w", err)
	}
	return def, nil
}

// Delete 删除目录定义。引用它的库存件和配方行置空引用后继续可用，
// 走遗留的按名称匹配。
func (s *CatalogService) Delete(id string) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("删除目录定义失败: %w", err)
	}
	return nil
}
