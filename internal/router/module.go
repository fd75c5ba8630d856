package router

import "github.com/gin-gonic/gin"

// Module is a self-contained route bundle; each one mounts its own endpoints
// on the shared /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
