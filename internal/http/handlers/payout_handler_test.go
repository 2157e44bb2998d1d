package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ugcmarket/ugc-backend/internal/http/middleware"
	"github.com/ugcmarket/ugc-backend/internal/models"
)

// asUser подставляет в контекст аутентифицированного пользователя.
func asUser(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
		c.Set(middleware.ContextRoleKey, role)
	}
}

func TestPayoutHandler_Request_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.POST("/payouts", handler.Request)

	req, _ := http.NewRequest("POST", "/payouts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPayoutHandler_Get_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.GET("/payouts/:id", asUser(models.RoleCreator), handler.Get)

	req, _ := http.NewRequest("GET", "/payouts/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayoutHandler_Approve_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.POST("/admin/payouts/:id/approve", handler.Approve)

	req, _ := http.NewRequest("POST", "/admin/payouts/00000000-0000-0000-0000-000000000001/approve", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPayoutHandler_Reject_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PayoutHandler{payouts: nil}
	r.POST("/admin/payouts/:id/reject", asUser(models.RoleAdmin), handler.Reject)

	req, _ := http.NewRequest("POST", "/admin/payouts/"+uuid.New().String()+"/reject", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
