package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

func TestDisputeHandler_Open_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/jobs/:id/disputes", handler.Open)

	req, _ := http.NewRequest("POST", "/jobs/00000000-0000-0000-0000-000000000001/disputes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_Open_InvalidJobID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/jobs/:id/disputes", asUser(models.RoleBrand), handler.Open)

	req, _ := http.NewRequest("POST", "/jobs/not-a-uuid/disputes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_AddMessage_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/disputes/:id/messages", asUser(models.RoleBrand), handler.AddMessage)

	req, _ := http.NewRequest("POST", "/disputes/00000000-0000-0000-0000-000000000001/messages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_ResolveRefund_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DisputeHandler{disputes: nil}
	r.POST("/admin/disputes/:id/resolve-refund", handler.ResolveRefund)

	req, _ := http.NewRequest("POST", "/admin/disputes/00000000-0000-0000-0000-000000000001/resolve-refund", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
