package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/amaironohi/shop/internal/domain"
)

// MaxBodyBytes caps request bodies read by Decode
const MaxBodyBytes = 1 << 20

// JSON writes v with status
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200
func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Created writes v with 201
func Created(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusCreated, v)
}

// NoContent writes an empty 204
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Decode reads a single JSON value from r's body into dst. Malformed or
// oversized bodies are reported as *domain.ValidationError on "body".
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &domain.ValidationError{Field: "body", Message: "must not be empty"}
		case errors.As(err, &tooLarge):
			return &domain.ValidationError{Field: "body", Message: fmt.Sprintf("must not exceed %d bytes", MaxBodyBytes)}
		default:
			return &domain.ValidationError{Field: "body", Message: err.Error()}
		}
	}
	if dec.More() {
		return &domain.ValidationError{Field: "body", Message: "must contain a single JSON value"}
	}
	return nil
}
