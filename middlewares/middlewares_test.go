package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
}

func serve(r *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterIsPerClient(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(0.001, 2).RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.2:1000"))
}

func TestUserRateLimiterKeysOnUser(t *testing.T) {
	rl := NewUserRateLimiter(time.Hour, 1)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserID, uint(len(c.Query("u"))))
		c.Next()
	}, rl.RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(query string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?u="+query, nil))
		return w.Code
	}
	assert.Equal(t, http.StatusOK, get("a"))
	assert.Equal(t, http.StatusTooManyRequests, get("b"))
	assert.Equal(t, http.StatusOK, get("bb"))
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"vendor", &models.User{ID: 1, Role: models.RoleVendor, IsApproved: true, IsActive: true}, http.StatusForbidden},
		{"resident", &models.User{ID: 2, Role: models.RoleResident, IsApproved: true, IsActive: true}, http.StatusOK},
		{"unapproved resident", &models.User{ID: 3, Role: models.RoleResident, IsActive: true}, http.StatusForbidden},
		{"inactive resident", &models.User{ID: 4, Role: models.RoleResident, IsApproved: true}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.user != nil {
					c.Set(ContextUser, tt.user)
				}
				c.Next()
			})
			r.GET("/x", RequireCapability(services.CapOrderPlace), func(c *gin.Context) { c.Status(http.StatusOK) })
			assert.Equal(t, tt.want, serve(r, "10.0.0.9:1000"))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares("https://mess.campus.test"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://mess.campus.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
