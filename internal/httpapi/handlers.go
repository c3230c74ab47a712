package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopnex/internal/catalog"
	"shopnex/internal/metrics"
)

const banner = "🚀 Shopnex Backend is Running!"

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// decodeObject reads a JSON object body. An empty body is an empty object.
func decodeObject(c *gin.Context) (map[string]any, bool) {
	body := map[string]any{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	err := dec.Decode(&body)
	if errors.Is(err, io.EOF) {
		return body, true
	}
	if err == nil {
		// Anything but whitespace after the object is rejected.
		if _, err = dec.Token(); errors.Is(err, io.EOF) {
			return body, true
		}
	}
	WriteJSONError(c, http.StatusBadRequest, "invalid JSON body")
	return nil, false
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return catalog.KindOf(err).String()
}

func (h *Handler) root(c *gin.Context) {
	c.String(http.StatusOK, banner)
}

func (h *Handler) health(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) createProduct(c *gin.Context) {
	payload, ok := decodeObject(c)
	if !ok {
		return
	}
	id, err := h.svc.Create(c.Request.Context(), payload)
	metrics.RecordMutation("create", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Product Added Successfully",
		"productId": id,
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) listProductsByOwner(c *gin.Context) {
	items, err := h.svc.ListByOwner(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	patch, ok := decodeObject(c)
	if !ok {
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	metrics.RecordMutation("update", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product Updated", "result": res})
}

// deleteProduct expects the requester as ?email=owner@example.com.
func (h *Handler) deleteProduct(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), c.Query("email"))
	metrics.RecordMutation("delete", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product Deleted Successfully"})
}
