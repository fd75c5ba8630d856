package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/usuariosapp/accounts-api/internal/container"
	handlers "github.com/usuariosapp/accounts-api/internal/interface/http"
	"github.com/usuariosapp/accounts-api/internal/interface/middleware"
)

// UserModule wires the user CRUD handlers into routes under /api/users.
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// Writes get a tighter per-IP limit than reads.
	writeLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	readLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())

	users := rg.Group("/users")
	{
		users.POST("", writeLimiter, m.Handler.Create)
		users.GET("", readLimiter, m.Handler.List)
		users.GET("/search", readLimiter, m.Handler.Search)
		users.GET("/:id", readLimiter, m.Handler.GetByID)
		users.PUT("/:id", writeLimiter, m.Handler.Update)
		users.PATCH("/:id/permission", writeLimiter, m.Handler.UpdatePermission)
		users.DELETE("/:id", writeLimiter, m.Handler.Delete)
	}
}
