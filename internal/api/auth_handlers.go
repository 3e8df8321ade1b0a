package api

import (
	"net/http"

	"github.com/amaironohi/shop/internal/account"
	"github.com/amaironohi/shop/internal/domain"
	"github.com/amaironohi/shop/internal/web/response"
)

type signupRequest struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Birthdate domain.Date `json:"birthdate"`
	Address   string      `json:"address"`
}

type signupResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Accounts.Register(r.Context(), account.Registration{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Birthdate: req.Birthdate,
		Address:   req.Address,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, signupResponse{Message: "アカウントが作成されました", User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	token, err := h.Sessions.Issue(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.Sessions.TTL().Seconds()),
	})
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.Accounts.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, user)
}

func (h *handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var patch domain.UserPatch
	if err := response.Decode(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.Accounts.Update(r.Context(), userID, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, user)
}

func (h *handlers) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in account.CustomerInput
	if err := response.Decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.Accounts.CreateCustomer(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, c)
}

func (h *handlers) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "customerID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.Accounts.GetCustomer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, c)
}

func (h *handlers) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "customerID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var patch domain.CustomerPatch
	if err := response.Decode(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.Accounts.UpdateCustomer(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, c)
}
