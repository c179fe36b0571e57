package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

type cartItemRef struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant"`
}

func (h *handlers) getCart(c *gin.Context) {
	h.respondCart(c, http.StatusOK)
}

// respondCart renders the caller's cart priced at current catalog prices.
func (h *handlers) respondCart(c *gin.Context, status int) {
	view, err := h.deps.CartSvc.GetCart(c.Request.Context(), callerOf(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, view)
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.deps.CartSvc.AddItem(c.Request.Context(), callerOf(c), req.ProductID, req.Variant, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.deps.CartSvc.UpdateQuantity(c.Request.Context(), callerOf(c), req.ProductID, req.Variant, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	var req cartItemRef
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), callerOf(c), req.ProductID, req.Variant); err != nil {
		h.fail(c, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.CartSvc.Clear(c.Request.Context(), callerOf(c)); err != nil {
		h.fail(c, err)
		return
	}
	h.respondCart(c, http.StatusOK)
}
