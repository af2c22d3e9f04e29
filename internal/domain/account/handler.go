package account

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	api.GET("/user/profile", h.GetProfile)
	api.PUT("/user/profile", h.UpdateProfile)
	api.PATCH("/user/profile", h.UpdateProfile)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	resp, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.Logout(ctx, actor.UserID, auth.TokenIDFromContext(ctx), auth.TokenExpiryFromContext(ctx)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) GetProfile(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Profile(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateProfile serves both PUT and PATCH as partial updates.
func (h *Handler) UpdateProfile(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), actor.UserID, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
