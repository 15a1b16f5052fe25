package handler

import (
	"go-pos-inventory/internal/metrics"
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/service"
	"go-pos-inventory/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
)

// Services is everything the HTTP surface calls into.
type Services struct {
	Auth     service.AuthService
	Products service.ProductService
	Sales    service.SaleService
	Requests service.RequestService
	Reports  service.ReportService
	Users    service.UserService
}

// SetupRoutes mounts the API under /api/v1 plus /health, /metrics and /ws.
// Hub and Metrics may be nil.
func SetupRoutes(app *fiber.App, svc Services, hub *ws.Hub, m *metrics.Metrics, log *zap.Logger) {
	authHandler := NewAuthHandler(svc.Auth, log)
	productHandler := NewProductHandler(svc.Products, log)
	saleHandler := NewSaleHandler(svc.Sales, log)
	requestHandler := NewRequestHandler(svc.Requests, log)
	reportHandler := NewReportHandler(svc.Reports, log)
	userHandler := NewUserHandler(svc.Users, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(svc.Auth))

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	// Product Routes
	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetProducts)
	protected.Get("/products/low-stock", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetLowStock)
	protected.Get("/products/:id", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), productHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductDelete), productHandler.DeleteProduct)
	protected.Post("/products/:id/restock", middleware.RequirePrivilege(model.PrivProductRestock), productHandler.Restock)

	// Sale Routes
	protected.Get("/sales", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSales)
	protected.Get("/sales/:id", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSale)
	protected.Post("/sales", middleware.RequirePrivilege(model.PrivSaleCreate), saleHandler.RecordSale)
	protected.Put("/sales/:id", middleware.RequirePrivilege(model.PrivSaleOverride), saleHandler.UpdateSale)
	protected.Delete("/sales/:id", middleware.RequirePrivilege(model.PrivSaleOverride), saleHandler.DeleteSale)

	// Request Routes
	protected.Get("/requests", middleware.RequirePrivilege(model.PrivRequestView), requestHandler.GetRequests)
	protected.Get("/requests/pending-count", middleware.RequirePrivilege(model.PrivRequestView), requestHandler.GetPendingCount)
	protected.Get("/requests/:id", middleware.RequirePrivilege(model.PrivRequestView), requestHandler.GetRequest)
	protected.Post("/requests", middleware.RequirePrivilege(model.PrivRequestCreate), requestHandler.CreateRequest)
	protected.Patch("/requests/:id/status", middleware.RequirePrivilege(model.PrivRequestDecide), requestHandler.SetStatus)
	protected.Post("/requests/:id/approve", middleware.RequirePrivilege(model.PrivRequestDecide), requestHandler.Approve)
	protected.Post("/requests/:id/reject", middleware.RequirePrivilege(model.PrivRequestDecide), requestHandler.Reject)
	protected.Delete("/requests/:id", middleware.RequirePrivilege(model.PrivRequestDelete), requestHandler.DeleteRequest)

	// Report Routes
	reports := protected.Group("/reports", middleware.RequirePrivilege(model.PrivReportView))
	reports.Get("/dashboard", reportHandler.GetDashboardStats)
	reports.Get("/sales-summary", reportHandler.GetSalesSummary)
	reports.Get("/today", reportHandler.GetTodaySummary)
	reports.Get("/top-products", reportHandler.GetTopProducts)

	// User Management Routes
	protected.Get("/roles", middleware.RequireAnyPrivilege(model.PrivUserView, model.PrivUserManage), userHandler.GetRoles)
	protected.Get("/users", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetAllUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserManage), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege(model.PrivUserManage), userHandler.UpdateUser)

	if hub != nil {
		registerWebSocket(app, hub)
	}
}

// registerWebSocket streams committed stock and request events to dashboards.
func registerWebSocket(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register(c)
		defer hub.Unregister(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
