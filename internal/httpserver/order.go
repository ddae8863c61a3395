package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

type orderHandlers struct {
	svc orderService
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"userId"`
	User            *ownerResponse     `json:"user,omitempty"`
	UserEmail       string             `json:"userEmail"`
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone"`
	CustomerAddress string             `json:"customerAddress"`
	Items           []domain.OrderLine `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Tax             decimal.Decimal    `json:"tax"`
	Total           decimal.Decimal    `json:"total"`
	PaymentMethod   string             `json:"paymentMethod"`
	Status          domain.OrderStatus `json:"status"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type ownerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toOrderResponse(o domain.Order, withOwner bool) orderResponse {
	items := o.Items
	if items == nil {
		items = []domain.OrderLine{}
	}
	resp := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		UserEmail:       o.UserEmail,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		Items:           items,
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if withOwner {
		resp.User = &ownerResponse{ID: o.UserID, Email: o.UserEmail}
	}
	return resp
}

func toOrderResponses(orders []domain.Order, withOwner bool) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o, withOwner))
	}
	return out
}

func (h *orderHandlers) place(c *gin.Context) {
	var in ordersvc.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, domain.InvalidInput("malformed body: %v", err))
		return
	}
	o, err := h.svc.Place(c.Request.Context(), caller(c), in, c.GetHeader(idempotencyKeyHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, toOrderResponse(*o, false), "Order placed successfully")
}

func (h *orderHandlers) listForUser(c *gin.Context) {
	orders, err := h.svc.ListForUser(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toOrderResponses(orders, false), "")
}

func (h *orderHandlers) listAll(c *gin.Context) {
	orders, err := h.svc.ListAll(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toOrderResponses(orders, true), "")
}

func (h *orderHandlers) get(c *gin.Context) {
	o, err := h.svc.Get(c.Request.Context(), caller(c), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toOrderResponse(*o, false), "")
}

func (h *orderHandlers) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.InvalidInput("malformed body: %v", err))
		return
	}
	o, err := h.svc.UpdateStatus(c.Request.Context(), caller(c), c.Param("orderId"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, toOrderResponse(*o, true), "Order status updated successfully")
}
