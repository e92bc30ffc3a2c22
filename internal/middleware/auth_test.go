package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/auth"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

func authTestRouter(cfg *config.JWTConfig, roles ...domain.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	grp := r.Group("/", AuthRequired(cfg))
	if len(roles) > 0 {
		grp.Use(RequireRole(roles...))
	}
	grp.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "actor": GetActor(c)})
	})
	return r
}

func doGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Hour, Issuer: "go-delivery"}
	token, err := auth.GenerateAccessToken(cfg, 42, "op@example.com", domain.RoleOperator)
	require.NoError(t, err)

	w := doGet(authTestRouter(cfg), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actor":"operator:op@example.com"`)
}

func TestAuthRequiredRejectsMissingAndMalformedHeaders(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Hour}
	r := authTestRouter(cfg)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer garbage").Code)
}

func TestRequireRoleForbidsWrongRole(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Hour}
	token, err := auth.GenerateAccessToken(cfg, 3, "c@example.com", domain.RoleCustomer)
	require.NoError(t, err)

	w := doGet(authTestRouter(cfg, domain.RoleOperator), "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Hour}
	token, err := auth.GenerateAccessToken(cfg, 7, "r@example.com", domain.RoleRestaurant)
	require.NoError(t, err)

	w := doGet(authTestRouter(cfg, domain.RoleRestaurant, domain.RoleOperator), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
}
