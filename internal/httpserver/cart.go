package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
)

type cartHandlers struct {
	svc cartService
}

// addToCartRequest accepts the legacy menuItemId name used by older clients.
type addToCartRequest struct {
	ItemID     string `json:"itemId"`
	MenuItemID string `json:"menuItemId"`
}

func (r addToCartRequest) itemID() string {
	if r.ItemID != "" {
		return r.ItemID
	}
	return r.MenuItemID
}

type updateCartRequest struct {
	ItemID     string `json:"itemId"`
	MenuItemID string `json:"menuItemId"`
	Quantity   *int   `json:"quantity"`
}

func (h *cartHandlers) get(c *gin.Context) {
	cart, err := h.svc.Get(c.Request.Context(), caller(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "")
}

func (h *cartHandlers) add(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.InvalidInput("malformed body: %v", err))
		return
	}
	cart, err := h.svc.Add(c.Request.Context(), caller(c).UserID, req.itemID())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Item added to cart")
}

func (h *cartHandlers) update(c *gin.Context) {
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.InvalidInput("malformed body: %v", err))
		return
	}
	if req.Quantity == nil {
		respondError(c, domain.InvalidInput("quantity required"))
		return
	}
	itemID := addToCartRequest{ItemID: req.ItemID, MenuItemID: req.MenuItemID}.itemID()
	cart, err := h.svc.SetQuantity(c.Request.Context(), caller(c).UserID, itemID, *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Cart updated")
}

func (h *cartHandlers) remove(c *gin.Context) {
	cart, err := h.svc.Remove(c.Request.Context(), caller(c).UserID, c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Item removed from cart")
}

func (h *cartHandlers) clear(c *gin.Context) {
	cart, err := h.svc.Clear(c.Request.Context(), caller(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cart, "Cart cleared")
}
