package handler

import (
	"net/url"
	"strconv"

	"github.com/bitfantasy/nimo-workshop/internal/workshop/repository"
	"github.com/bitfantasy/nimo-workshop/internal/workshop/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StockHandler struct {
	svc        *service.StockService
	allocation *service.AllocationService
	logger     *zap.Logger
}

func NewStockHandler(svc *service.StockService, allocation *service.AllocationService, logger *zap.Logger) *StockHandler {
	return &StockHandler{svc: svc, allocation: allocation, logger: logger}
}

func (h *StockHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	params := repository.StockListParams{
		Status:           c.Query("status"),
		ItemDefinitionID: c.Query("item_definition_id"),
		Keyword:          c.Query("keyword"),
		Page:             page,
		Size:             size,
	}
	items, total, err := h.svc.List(params)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": items, "total": total, "page": page, "size": size})
}

func (h *StockHandler) Get(c *gin.Context) {
	item, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, item)
}

func (h *StockHandler) BulkAdd(c *gin.Context) {
	var req service.BulkAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	items, err := h.svc.BulkAdd(c.Request.Context(), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, gin.H{"items": items, "count": len(items)})
}

// Cut 手动切割
// POST /stock/:id/cut
func (h *StockHandler) Cut(c *gin.Context) {
	var req service.ManualCutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	message, err := h.svc.Cut(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": message})
}

// Candidates 配料切割前列出尺寸够切的候选板
// GET /stock/candidates?definition_id=&min_width=&min_height=
func (h *StockHandler) Candidates(c *gin.Context) {
	minWidth, _ := strconv.ParseFloat(c.DefaultQuery("min_width", "0"), 64)
	minHeight, _ := strconv.ParseFloat(c.DefaultQuery("min_height", "0"), 64)
	boards, err := h.allocation.ListCandidateBoards(c.Query("definition_id"), minWidth, minHeight)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, boards)
}

// Export 导出库存清单
// GET /stock/export
func (h *StockHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.ExportXLSX()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+url.QueryEscape(filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	// 响应头已发出，写入失败只能记日志，改不了状态码
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("导出库存写入响应失败", zap.Error(err))
	}
}
