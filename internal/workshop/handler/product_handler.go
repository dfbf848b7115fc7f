package handler

import (
	"github.com/bitfantasy/nimo-workshop/internal/workshop/service"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	products, total, err := h.svc.List(c.Query("keyword"), page, size)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": products, "total": total, "page": page, "size": size})
}

func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, product)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	product, err := h.svc.Create(req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	product, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

func (h *ProductHandler) AddIngredient(c *gin.Context) {
	var req service.AddIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ing, err := h.svc.AddIngredient(c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, ing)
}

func (h *ProductHandler) RemoveIngredient(c *gin.Context) {
	if err := h.svc.RemoveIngredient(c.Param("id"), c.Param("ingredientId")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// UploadImage 上传产品图片
// POST /products/:id/image
func (h *ProductHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "没有上传文件: "+err.Error())
		return
	}
	key, err := h.svc.UploadImage(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, gin.H{"image_key": key})
}

// ImageURL 获取产品图片的预签名下载地址
// GET /products/:id/image
func (h *ProductHandler) ImageURL(c *gin.Context) {
	u, err := h.svc.ImageURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"url": u})
}
