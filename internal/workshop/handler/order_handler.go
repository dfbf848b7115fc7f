package handler

import (
	"github.com/bitfantasy/nimo-workshop/internal/workshop/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc          *service.OrderService
	availability *service.AvailabilityService
	allocation   *service.AllocationService
}

func NewOrderHandler(svc *service.OrderService, availability *service.AvailabilityService, allocation *service.AllocationService) *OrderHandler {
	return &OrderHandler{svc: svc, availability: availability, allocation: allocation}
}

func (h *OrderHandler) List(c *gin.Context) {
	page, size := GetPagination(c)
	orders, total, err := h.svc.List(c.Query("status"), page, size)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": orders, "total": total, "page": page, "size": size})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, order)
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	order, err := h.svc.Create(req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, order)
}

func (h *OrderHandler) Update(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	order, err := h.svc.Rename(c.Param("id"), req.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, order)
}

func (h *OrderHandler) AddItem(c *gin.Context) {
	var req service.AddOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.AddItem(c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, item)
}

func (h *OrderHandler) RemoveItem(c *gin.Context) {
	if err := h.svc.RemoveItem(c.Param("id"), c.Param("itemId")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// Availability 备料检查：汇总订单物料需求并逐条判定 ready/cut_needed/missing
// GET /orders/:id/availability
func (h *OrderHandler) Availability(c *gin.Context) {
	requirements, err := h.availability.ComputeOrderAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, requirements)
}

// AllocateCut 配料切割：从选定原板切出精确尺寸件并预留给订单
// POST /orders/:id/allocate-cut
func (h *OrderHandler) AllocateCut(c *gin.Context) {
	var req service.AllocateCutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	message, err := h.allocation.AllocateCut(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": message})
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Transition 订单状态流转
// POST /orders/:id/status
func (h *OrderHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.Transition(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}
