package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"order_srv/internal/models"
)

// orderRequest is the payload for creating or updating an order.
type orderRequest struct {
	Number      string          `json:"number"`
	Date        string          `json:"date"`
	ClientID    uint            `json:"client_id"`
	Department  string          `json:"department"`
	ManagerID   uint            `json:"manager_id"`
	Status      string          `json:"status"`
	Priority    string          `json:"priority"`
	OrderType   string          `json:"order_type"`
	PlannedDate string          `json:"planned_date"`
	AmountTotal decimal.Decimal `json:"amount_total"`
}

func (r *orderRequest) apply(order *models.Order) error {
	date, err := parseDate(r.Date)
	if err != nil {
		return errors.New("invalid date, expected YYYY-MM-DD")
	}
	planned, err := parseDate(r.PlannedDate)
	if err != nil {
		return errors.New("invalid planned_date, expected YYYY-MM-DD")
	}

	order.Number = r.Number
	if date != nil {
		order.Date = *date
	} else if order.Date.IsZero() {
		order.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	order.ClientID = r.ClientID
	order.Department = r.Department
	order.ManagerID = r.ManagerID
	if r.Status != "" {
		order.Status = r.Status
	}
	if r.Priority != "" {
		order.Priority = r.Priority
	}
	if r.OrderType != "" {
		order.OrderType = r.OrderType
	}
	order.PlannedDate = planned
	order.AmountTotal = r.AmountTotal
	return nil
}

// listOrders handles listing orders with the legacy filter set.
func (s *Server) listOrders(c echo.Context) error {
	query := s.db.WithContext(c.Request().Context()).
		Preload("Client").Preload("Manager").Preload("Items")

	for param, column := range map[string]string{
		"status":     "status",
		"priority":   "priority",
		"order_type": "order_type",
		"department": "department",
		"manager":    "manager_id",
		"client":     "client_id",
		"date":       "date",
	} {
		if v := c.QueryParam(param); v != "" {
			query = query.Where(column+" = ?", v)
		}
	}

	var orders []models.Order
	if err := query.Order("date DESC, number ASC").Find(&orders).Error; err != nil {
		s.logger.WithError(err).Error("Failed to list orders")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list orders",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

// createOrder handles order creation
func (s *Server) createOrder(c echo.Context) error {
	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}

	if req.Number == "" || req.ClientID == 0 || req.ManagerID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "number, client_id and manager_id are required",
		})
	}

	var order models.Order
	if err := req.apply(&order); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := s.db.WithContext(c.Request().Context()).Create(&order).Error; err != nil {
		s.logger.WithError(err).Error("Failed to create order")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create order",
		})
	}
	return c.JSON(http.StatusCreated, order)
}

// getOrder handles getting a single order
func (s *Server) getOrder(c echo.Context) error {
	order, err := s.findOrder(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// updateOrder handles order updates
func (s *Server) updateOrder(c echo.Context) error {
	order, err := s.findOrder(c)
	if err != nil {
		return err
	}

	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}
	if err := req.apply(order); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := s.db.WithContext(c.Request().Context()).Save(order).Error; err != nil {
		s.logger.WithError(err).Error("Failed to update order")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to update order",
		})
	}
	return c.JSON(http.StatusOK, order)
}

// deleteOrder handles order deletion
func (s *Server) deleteOrder(c echo.Context) error {
	order, err := s.findOrder(c)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(c.Request().Context()).Delete(order).Error; err != nil {
		s.logger.WithError(err).Error("Failed to delete order")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to delete order",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Order deleted successfully",
	})
}

// reserveOrder moves the order back to the "new" status.
func (s *Server) reserveOrder(c echo.Context) error {
	return s.setOrderStatus(c, models.OrderStatusNew)
}

// completeOrder marks the order as done.
func (s *Server) completeOrder(c echo.Context) error {
	return s.setOrderStatus(c, models.OrderStatusReady)
}

// cancelOrder marks the order as canceled.
func (s *Server) cancelOrder(c echo.Context) error {
	return s.setOrderStatus(c, models.OrderStatusCanceled)
}

func (s *Server) setOrderStatus(c echo.Context, status string) error {
	order, err := s.findOrder(c)
	if err != nil {
		return err
	}

	order.Status = status
	if err := s.db.WithContext(c.Request().Context()).
		Model(order).Update("status", status).Error; err != nil {
		s.logger.WithError(err).Error("Failed to update order status")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to update order status",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": order.Status})
}

func (s *Server) findOrder(c echo.Context) (*models.Order, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	var order models.Order
	err = s.db.WithContext(c.Request().Context()).
		Preload("Client").Preload("Manager").Preload("Items").
		First(&order, uint(id)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Order not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to get order")
	}
	return &order, nil
}

// listOrderItems lists items, optionally filtered by order.
func (s *Server) listOrderItems(c echo.Context) error {
	query := s.db.WithContext(c.Request().Context()).Model(&models.OrderItem{})
	if v := c.QueryParam("order"); v != "" {
		query = query.Where("order_id = ?", v)
	}

	var items []models.OrderItem
	if err := query.Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list order items",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// createOrderItem adds an item to an order.
func (s *Server) createOrderItem(c echo.Context) error {
	var item models.OrderItem
	if err := c.Bind(&item); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}
	if item.OrderID == 0 || item.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "order_id and name are required",
		})
	}

	if err := s.db.WithContext(c.Request().Context()).Create(&item).Error; err != nil {
		s.logger.WithError(err).Error("Failed to create order item")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create order item",
		})
	}
	return c.JSON(http.StatusCreated, item)
}

// deleteOrderItem removes an item.
func (s *Server) deleteOrderItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order item ID")
	}

	if err := s.db.WithContext(c.Request().Context()).
		Delete(&models.OrderItem{}, uint(id)).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to delete order item",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Order item deleted successfully",
	})
}
