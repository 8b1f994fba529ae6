package directory

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes read access to the catalog and the department rename
// cascade. Record CRUD is owned by the administration screens, not this core.
type Handler struct {
	service *Service
}

// NewHandler creates a new directory handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Users())
}

func (h *Handler) ListGroups(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Groups())
}

func (h *Handler) ListDepartments(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Departments())
}

// RenameDepartmentRequest renames a department and cascades to its users.
type RenameDepartmentRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

func (h *Handler) RenameDepartment(c echo.Context) error {
	var req RenameDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	updated, err := h.service.RenameDepartment(req.OldName, req.NewName)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int{"users_updated": updated})
}
