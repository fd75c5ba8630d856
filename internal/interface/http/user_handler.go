package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	userapp "github.com/usuariosapp/accounts-api/internal/application"
	"github.com/usuariosapp/accounts-api/pkg/apperror"
	"github.com/usuariosapp/accounts-api/pkg/response"
)

// UserHandler binds the user service to the HTTP routes. ExposeErrors
// controls whether unclassified failure detail reaches clients (enabled
// outside production only).
type UserHandler struct {
	Svc          *userapp.Service
	Logger       *logrus.Logger
	ExposeErrors bool
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, exposeErrors bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, ExposeErrors: exposeErrors}
}

type permissionRequest struct {
	Permission          string `json:"permission"`
	RequesterPermission string `json:"requester_permission"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userapp.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Invalid argument.", gin.H{"payload": "invalid json"})
		return
	}
	res, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		Fail(c, err, h.ExposeErrors)
		return
	}
	response.Success(c, http.StatusCreated, res, "User created successfully!")
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, apperror.InvalidArgument("id", "id must be a valid uuid"), h.ExposeErrors)
		return
	}
	res, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		Fail(c, err, h.ExposeErrors)
		return
	}
	response.Success(c, http.StatusOK, res, "user")
}

func (h *UserHandler) List(c *gin.Context) {
	res, err := h.Svc.ListAll(c.Request.Context())
	if err != nil {
		Fail(c, err, h.ExposeErrors)
		return
	}
	response.Success(c, http.StatusOK, res, "users")
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, apperror.InvalidArgument("id", "id must be a valid uuid"), h.ExposeErrors)
		return
	}
	var req userapp.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Invalid argument.", gin.H{"payload": "invalid json"})
		return
	}
	res, err := h.Svc.Update(c.Request.Context(), req, id)
	if err != nil {
		Fail(c, err, h.ExposeErrors)
		return
	}
	response.Success(c, http.StatusOK, res, "Email and/or password updated successfully!")
}

func (h *UserHandler) UpdatePermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, apperror.InvalidArgument("id", "id must be a valid uuid"), h.ExposeErrors)
		return
	}
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Invalid argument.", gin.H{"payload": "invalid json"})
		return
	}
	res, err := h.Svc.UpdatePermission(c.Request.Context(), id, req.Permission, req.RequesterPermission)
	if err != nil {
		Fail(c, err, h.ExposeErrors)
		return
	}
	response.Success(c, http.StatusOK, res, "Permission updated successfully!")
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, apperror.InvalidArgument("id", "id must be a valid uuid"), h.ExposeErrors)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		Fail(c, err, h.ExposeErrors)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted_id": id}, "User deleted successfully!")
}

func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	res, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		Fail(c, err, h.ExposeErrors)
		return
	}
	response.Success(c, http.StatusOK, res, "search results")
}
