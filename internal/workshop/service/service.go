package service

import (
	"github.com/bitfantasy/nimo-workshop/internal/config"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Catalog      *CatalogService
	Stock        *StockService
	Product      *ProductService
	Order        *OrderService
	Availability *AvailabilityService
	Allocation   *AllocationService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端，未配置时产品图片功能不可用
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO初始化失败，产品图片功能不可用", zap.Error(err))
			minioClient = nil
		}
	}

	availabilitySvc := NewAvailabilityService(repos.Order, repos.Stock, rdb)

	return &Services{
		Catalog:      NewCatalogService(repos.Catalog),
		Stock:        NewStockService(repos.Stock, availabilitySvc),
		Product:      NewProductService(repos.Product, repos.Catalog, minioClient, cfg.MinIO.Bucket),
		Order:        NewOrderService(repos.Order, repos.Product, availabilitySvc, logger),
		Availability: availabilitySvc,
		Allocation:   NewAllocationService(repos.Stock, repos.Order, availabilitySvc),
	}
}
