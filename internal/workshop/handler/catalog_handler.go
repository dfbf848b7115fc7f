package handler

import (
	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/service"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	params := repository.CatalogListParams{
		Category: c.Query("category"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		Size:     size,
	}
	defs, total, err := h.svc.List(params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": defs, "total": total, "page": page, "size": size})
}

func (h *CatalogHandler) Get(c *gin.Context) {
	def, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, def)
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var req service.ItemDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	def, err := h.svc.Create(req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, def)
}

func (h *CatalogHandler) Update(c *gin.Context) {
	var req service.ItemDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	def, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, def)
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}
