package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/academiapress/platform-api/internal/models"
)

func rbacRouter(allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/resource/:id", RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRBACRejectsAnonymous(t *testing.T) {
	r := rbacRouter(models.RoleAdmin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/resource/u1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBACRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		role    string
		allowed []string
		status  int
	}{
		{name: "editor allowed", role: models.RoleEditor, allowed: []string{models.RoleEditor, models.RoleAdmin}, status: http.StatusOK},
		{name: "author denied", role: models.RoleAuthor, allowed: []string{models.RoleEditor, models.RoleAdmin}, status: http.StatusForbidden},
		{name: "admin allowed", role: models.RoleAdmin, allowed: []string{models.RoleAdmin}, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.PATCH("/resource/:id", func(c *gin.Context) {
				c.Set(ContextUserKey, &models.AccessClaims{UserID: "someone-else", Role: tc.role})
			}, RBAC(tc.allowed...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/resource/u1", nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRBACSelfAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/resource/:id", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.AccessClaims{UserID: "u1", Role: models.RoleAuthor})
	}, RBAC(models.RoleAdmin, "SELF"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/resource/u1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/resource/u2", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
