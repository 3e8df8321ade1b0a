package api

import (
	"fmt"
	"net/http"

	"github.com/amaironohi/shop/internal/catalog"
	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/web/response"
)

func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, products)
}

func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathString(r, "productID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, p)
}

type bulkResponse struct {
	Message string `json:"message"`
	catalog.BulkResult
}

func (h *handlers) registerProducts(w http.ResponseWriter, r *http.Request) {
	var inputs []catalog.ProductInput
	if err := response.Decode(w, r, &inputs); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.Catalog.BulkRegisterProducts(r.Context(), inputs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, bulkResponse{
		Message:    fmt.Sprintf("%d 件の商品を登録しました", res.RegisteredCount),
		BulkResult: res,
	})
}

type recommendRequest struct {
	Tags []string `json:"tags"`
}

func (h *handlers) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Tags == nil {
		h.fail(w, r, &domain.ValidationError{Field: "tags", Message: "is required"})
		return
	}

	gifts, err := h.Recommender.Recommend(r.Context(), req.Tags)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, gifts)
}

func (h *handlers) listGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.Catalog.ListGifts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, gifts)
}

func (h *handlers) getGift(w http.ResponseWriter, r *http.Request) {
	id, err := pathString(r, "giftID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.Catalog.GetGift(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, g)
}

func (h *handlers) createGift(w http.ResponseWriter, r *http.Request) {
	var in catalog.GiftInput
	if err := response.Decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := h.Catalog.CreateGift(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, g)
}

func (h *handlers) deleteGift(w http.ResponseWriter, r *http.Request) {
	id, err := pathString(r, "giftID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Catalog.DeleteGift(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, message{Message: fmt.Sprintf("ギフト '%s' を削除しました", id)})
}
