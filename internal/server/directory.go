package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"order_srv/internal/models"
)

// setupDirectoryRoutes wires the reference-data CRUD: employees, clients,
// roles and the order-status dictionary.
func (s *Server) setupDirectoryRoutes(api *echo.Group) {
	employees := api.Group("/employees")
	{
		employees.GET("", s.listEmployees)
		employees.POST("", crudCreate[models.Employee](s))
		employees.GET("/:id", crudGet[models.Employee](s))
		employees.PUT("/:id", crudUpdate[models.Employee](s))
		employees.DELETE("/:id", crudDelete[models.Employee](s))
	}

	clients := api.Group("/clients")
	{
		clients.GET("", s.listClients)
		clients.POST("", crudCreate[models.Client](s))
		clients.GET("/:id", crudGet[models.Client](s))
		clients.PUT("/:id", crudUpdate[models.Client](s))
		clients.DELETE("/:id", crudDelete[models.Client](s))
	}

	roles := api.Group("/roles")
	{
		roles.GET("", crudList[models.Role](s))
		roles.POST("", crudCreate[models.Role](s))
		roles.GET("/:id", crudGet[models.Role](s))
		roles.PUT("/:id", crudUpdate[models.Role](s))
		roles.DELETE("/:id", crudDelete[models.Role](s))
	}

	statuses := api.Group("/dictionaries/order-statuses")
	{
		statuses.GET("", crudList[models.OrderStatusDict](s))
		statuses.POST("", crudCreate[models.OrderStatusDict](s))
		statuses.DELETE("/:id", crudDelete[models.OrderStatusDict](s))
	}
}

// listEmployees supports the legacy department/status filters.
func (s *Server) listEmployees(c echo.Context) error {
	query := s.db.WithContext(c.Request().Context()).Model(&models.Employee{})
	if v := c.QueryParam("department"); v != "" {
		query = query.Where("department = ?", v)
	}
	if v := c.QueryParam("status"); v != "" {
		query = query.Where("status = ?", v)
	}

	var employees []models.Employee
	if err := query.Order("full_name ASC").Find(&employees).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list employees",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"employees": employees,
		"count":     len(employees),
	})
}

// listClients supports the legacy name filter.
func (s *Server) listClients(c echo.Context) error {
	query := s.db.WithContext(c.Request().Context()).Model(&models.Client{})
	if v := c.QueryParam("name"); v != "" {
		query = query.Where("name = ?", v)
	}

	var clients []models.Client
	if err := query.Order("name ASC").Find(&clients).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list clients",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"clients": clients,
		"count":   len(clients),
	})
}

// Generic CRUD handlers for flat reference entities.

func crudList[T any](s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var records []T
		if err := s.db.WithContext(c.Request().Context()).Find(&records).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to list records",
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"items": records,
			"count": len(records),
		})
	}
}

func crudCreate[T any](s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var record T
		if err := c.Bind(&record); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid request format",
			})
		}
		if err := s.db.WithContext(c.Request().Context()).Create(&record).Error; err != nil {
			s.logger.WithError(err).Error("Failed to create record")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to create record",
			})
		}
		return c.JSON(http.StatusCreated, record)
	}
}

func crudGet[T any](s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
		}

		var record T
		err = s.db.WithContext(c.Request().Context()).First(&record, uint(id)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Not found")
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to get record",
			})
		}
		return c.JSON(http.StatusOK, record)
	}
}

func crudUpdate[T any](s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
		}

		var record T
		err = s.db.WithContext(c.Request().Context()).First(&record, uint(id)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Not found")
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to get record",
			})
		}

		var updates T
		if err := c.Bind(&updates); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid request format",
			})
		}
		if err := s.db.WithContext(c.Request().Context()).
			Model(&record).Updates(updates).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to update record",
			})
		}
		return c.JSON(http.StatusOK, record)
	}
}

func crudDelete[T any](s *Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
		}

		var record T
		if err := s.db.WithContext(c.Request().Context()).Delete(&record, uint(id)).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to delete record",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"message": "Deleted successfully",
		})
	}
}
