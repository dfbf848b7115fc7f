package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/entity"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"
)

type ProductService struct {
	repo        *repository.ProductRepository
	catalogRepo *repository.CatalogRepository
	minioClient *minio.Client
	bucket      string
}

func NewProductService(repo *repository.ProductRepository, catalogRepo *repository.CatalogRepository, minioClient *minio.Client, bucket string) *ProductService {
	return &ProductService{repo: repo, catalogRepo: catalogRepo, minioClient: minioClient, bucket: bucket}
}

func (s *ProductService) GetByID(id string) (*entity.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("产品不存在: %w", ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) List(keyword string, page, size int) ([]entity.Product, int64, error) {
	return s.repo.List(keyword, page, size)
}

type ProductRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price"`
	Notes string  `json:"notes"`
}

func (s *ProductService) Create(req ProductRequest) (*entity.Product, error) {
	product := &entity.Product{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Price: req.Price,
		Notes: req.Notes,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, fmt.Errorf("创建产品失败: %w", err)
	}
	return product, nil
}

func (s *ProductService) Update(id string, req ProductRequest) (*entity.Product, error) {
	product, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	product.Name = req.Name
	product.Price = req.Price
	product.Notes = req.Notes
	if err := s.repo.Update(product); err != nil {
		return nil, fmt.Errorf("更新产品失败: %w", err)
	}
	return product, nil
}

func (s *ProductService) Delete(id string) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("删除产品失败: %w", err)
	}
	return nil
}

type AddIngredientRequest struct {
	ItemDefinitionID string   `json:"item_definition_id"`
	LegacyStockID    string   `json:"legacy_stock_id"`
	Quantity         float64  `json:"quantity" binding:"required,gt=0"`
	Width            *float64 `json:"width"`
	Height           *float64 `json:"height"`
}

// AddIngredient 添加配方行。目录定义与遗留库存引用二选一；
// 板材类目必须给出需求宽高。
func (s *ProductService) AddIngredient(productID string, req AddIngredientRequest) (*entity.ProductIngredient, error) {
	if _, err := s.GetByID(productID); err != nil {
		return nil, err
	}
	if (req.ItemDefinitionID == "") == (req.LegacyStockID == "") {
		return nil, fmt.Errorf("配方行必须且只能引用目录定义或遗留库存之一: %w", ErrValidation)
	}

	ing := &entity.ProductIngredient{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  req.Quantity,
		Width:     req.Width,
		Height:    req.Height,
	}
	if req.ItemDefinitionID != "" {
		def, err := s.catalogRepo.GetByID(req.ItemDefinitionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("目录定义不存在: %w", ErrNotFound)
			}
			return nil, err
		}
		if def.Category.RequiresDimensions() && (req.Width == nil || req.Height == nil) {
			return nil, fmt.Errorf("板材类配方行必须给出宽高: %w", ErrValidation)
		}
		ing.ItemDefinitionID = &def.ID
	} else {
		legacyID := req.LegacyStockID
		ing.LegacyStockID = &legacyID
	}

	if err := s.repo.AddIngredient(ing); err != nil {
		return nil, fmt.Errorf("添加配方行失败: %w", err)
	}
	return ing, nil
}

func (s *ProductService) RemoveIngredient(productID, ingredientID string) error {
	ing, err := s.repo.GetIngredient(ingredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("配方行不存在: %w", ErrNotFound)
		}
		return err
	}
	if ing.ProductID != productID {
		return fmt.Errorf("配方行不属于该产品: %w", ErrValidation)
	}
	return s.repo.RemoveIngredient(ingredientID)
}

// UploadImage 上传产品图片到对象存储并记录key
func (s *ProductService) UploadImage(ctx context.Context, productID string, file *multipart.FileHeader) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("对象存储未配置: %w", ErrConflict)
	}
	product, err := s.GetByID(productID)
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	defer src.Close()

	key := fmt.Sprintf("products/%s/%s%s", productID, uuid.New().String()[:8], filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.minioClient.PutObject(ctx, s.bucket, key, src, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传图片失败: %w", err)
	}

	product.ImageKey = &key
	if err := s.repo.Update(product); err != nil {
		return "", fmt.Errorf("记录图片失败: %w", err)
	}
	return key, nil
}

// ImageURL 生成图片的预签名下载地址
func (s *ProductService) ImageURL(ctx context.Context, productID string) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("对象存储未配置: %w", ErrConflict)
	}
	product, err := s.GetByID(productID)
	if err != nil {
		return "", err
	}
	if product.ImageKey == nil {
		return "", fmt.Errorf("产品没有图片: %w", ErrNotFound)
	}
	u, err := s.minioClient.PresignedGetObject(ctx, s.bucket, *product.ImageKey, 15*time.Minute, nil)
	if err != nil {
		return "", fmt.Errorf("生成下载地址失败: %w", err)
	}
	return u.String(), nil
}
