package identity

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the profile endpoints on api (/api) and the
// dashboard on site (/).
func (h *Handler) RegisterRoutes(api *echo.Group, site *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)

	api.GET("/doctors", h.ListDoctors)
	api.POST("/doctors", h.CreateDoctor)
	api.GET("/doctors/specialties", h.ListSpecialties)
	api.GET("/doctors/specialty/:name", h.DoctorsBySpecialty)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PUT("/doctors/:id", h.UpdateDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)

	api.GET("/doctor/patients", h.DoctorPatients)
	api.GET("/doctor/patients/:id", h.DoctorPatientDetail)
	api.PUT("/doctor/patients/:id", h.DoctorUpdatePatient)
	api.PUT("/doctor/patients/:id/update", h.DoctorUpdatePatient)
	api.PATCH("/doctor/patients/:id/update", h.DoctorUpdatePatient)

	api.POST("/profiles/patient/setup", h.SetupPatient)
	api.POST("/profiles/doctor/setup", h.SetupDoctor)

	site.GET("/dashboard", h.Dashboard)
}

func parseID(c echo.Context, msg string) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(msg)
	}
	return id, nil
}

func bindBody(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

// -- Patient Handlers --

func (h *Handler) ListPatients(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListPatients(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	var req CreatePatientRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "Invalid patient ID")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "Invalid patient ID")
	if err != nil {
		return err
	}
	var fields PatientFields
	if err := bindBody(c, &fields); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), actor, id, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "Invalid patient ID")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Doctor-facing patient views --

func (h *Handler) DoctorPatients(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	items, err := h.svc.DoctorPatients(c.Request().Context(), actor, c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DoctorPatientDetail(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "Invalid patient ID")
	if err != nil {
		return err
	}
	detail, err := h.svc.DoctorPatientDetail(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) DoctorUpdatePatient(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "Invalid patient ID")
	if err != nil {
		return err
	}
	var fields PatientFields
	if err := bindBody(c, &fields); err != nil {
		return err
	}
	p, err := h.svc.DoctorUpdatePatient(c.Request().Context(), actor, id, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// -- Doctor Handlers --

func (h *Handler) ListDoctors(c echo.Context) error {
	items, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	return c.JSON(http.StatusOK, Specialties())
}

func (h *Handler) DoctorsBySpecialty(c echo.Context) error {
	items, err := h.svc.DoctorsBySpecialty(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(items))
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	var fields DoctorFields
	if err := bindBody(c, &fields); err != nil {
		return err
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), actor, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c, "Invalid doctor ID")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c, "Invalid doctor ID")
	if err != nil {
		return err
	}
	var fields DoctorFields
	if err := bindBody(c, &fields); err != nil {
		return err
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "Invalid doctor ID")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Setup & Dashboard --

func (h *Handler) SetupPatient(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	var fields PatientFields
	if err := bindBody(c, &fields); err != nil {
		return err
	}
	p, err := h.svc.SetupPatient(c.Request().Context(), actor, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) SetupDoctor(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	var fields DoctorFields
	if err := bindBody(c, &fields); err != nil {
		return err
	}
	d, err := h.svc.SetupDoctor(c.Request().Context(), actor, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Dashboard(c echo.Context) error {
	actor, err := access.Require(c)
	if err != nil {
		return err
	}
	dash, err := h.svc.Dashboard(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dash)
}

// orEmpty renders a nil slice as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
