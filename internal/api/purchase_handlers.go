package api

import (
	"net/http"

	"github.com/amaironohi/shop/internal/checkout"
	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/web/response"
)

type cartResponse struct {
	Message string            `json:"message,omitempty"`
	Items   []domain.CartLine `json:"items"`
}

func cartBody(msg string, c *domain.Cart) cartResponse {
	items := c.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	return cartResponse{Message: msg, Items: items}
}

func (h *handlers) getCart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.Carts.GetOrCreate(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, cartBody("", c))
}

// addToCartRequest keeps the itemId field name the storefront sends
type addToCartRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (h *handlers) addToCart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req addToCartRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.Carts.AddItem(r.Context(), userID, req.ItemID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, cartBody("商品をカートに入れました", c))
}

func (h *handlers) removeFromCart(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	itemID, err := pathString(r, "itemID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.Carts.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, cartBody("商品を削除しました", c))
}

type purchaseResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func (h *handlers) purchase(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req checkout.PurchaseRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.Checkout.Purchase(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, purchaseResponse{Message: "注文が完了しました", Order: order})
}

func (h *handlers) orders(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	orders, err := h.Checkout.Orders(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, orders)
}

func (h *handlers) order(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	orderID, err := pathInt64(r, "orderID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.Checkout.Order(r.Context(), userID, orderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, o)
}
