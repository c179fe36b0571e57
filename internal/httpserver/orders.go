package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"homegoods/internal/domain"
	ordersvc "homegoods/internal/service/order"

	"github.com/gin-gonic/gin"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) createOrder(c *gin.Context) {
	var in ordersvc.CheckoutInput
	if err := decodeJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.deps.OrderSvc.Materialize(c.Request.Context(), callerOf(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handlers) listMyOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListMine(c.Request.Context(), callerOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.OrderSvc.Get(c.Request.Context(), callerOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) cancelOrder(c *gin.Context) {
	order, err := h.deps.OrderSvc.Cancel(c.Request.Context(), callerOf(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) listAllOrders(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		h.fail(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Page:   page,
		Limit:  limit,
	}
	result, err := h.deps.OrderSvc.ListAll(c.Request.Context(), callerOf(c), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), callerOf(c), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// queryInt parses an optional positive integer query parameter; 0 means absent.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidArgument, name)
	}
	return n, nil
}
