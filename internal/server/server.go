package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"order_srv/internal/auth"
	"order_srv/internal/config"
	"order_srv/internal/service"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	db      *gorm.DB
	reports *service.ReportService
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, db *gorm.DB, reports *service.ReportService, logger *logrus.Logger) *Server {
	e := echo.New()
	e.Debug = cfg.Server.Debug
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	if cfg.Server.Debug {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human} ${error}\n",
		}))
	}

	server := &Server{
		echo:    e,
		db:      db,
		reports: reports,
		logger:  logger,
	}

	server.setupRoutes(cfg)
	return server
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.WithField("address", address).Info("Starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// setupRoutes configures the server routes
func (s *Server) setupRoutes(cfg config.Config) {
	// Health check
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")

	// Role gates are only applied when authentication is enabled.
	var gateOrders, gateReports []echo.MiddlewareFunc
	if cfg.Auth.Enabled {
		api.Use(auth.Middleware(cfg.Auth.Secret))
		gateOrders = append(gateOrders, auth.GateOrders())
		gateReports = append(gateReports, auth.GateReports())
	}

	orders := api.Group("/orders", gateOrders...)
	{
		orders.GET("", s.listOrders)
		orders.POST("", s.createOrder)
		orders.GET("/:id", s.getOrder)
		orders.PUT("/:id", s.updateOrder)
		orders.DELETE("/:id", s.deleteOrder)
		orders.POST("/:id/reserve", s.reserveOrder)
		orders.POST("/:id/complete", s.completeOrder)
		orders.POST("/:id/cancel", s.cancelOrder)
	}

	items := api.Group("/order-items", gateOrders...)
	{
		items.GET("", s.listOrderItems)
		items.POST("", s.createOrderItem)
		items.DELETE("/:id", s.deleteOrderItem)
	}

	reports := api.Group("/reports", gateReports...)
	{
		reports.POST("", s.createReport)
		reports.GET("", s.listReports)
		reports.GET("/:id", s.getReport)
		reports.DELETE("/:id", s.deleteReport)
		reports.POST("/:id/generate", s.generateReport)
		reports.GET("/:id/preview", s.previewReport)
		reports.GET("/:id/download", s.downloadReport)
	}

	s.setupDirectoryRoutes(api)
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
	})
}
