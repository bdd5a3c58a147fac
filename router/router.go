package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hostel-meals/config"
	"github.com/yeremiapane/hostel-meals/controllers"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/tracking"
	"gorm.io/gorm"
)

// Options carries the collaborators that differ between the server and
// tests. Zero values fall back to defaults.
type Options struct {
	Config        *config.Config
	PurchaseStore services.PurchaseStore
	Hub           *tracking.Hub
	Clock         services.Clock
}

// Services is every service the router wires, exposed for tests.
type Services struct {
	Auth          *services.AuthService
	Users         *services.UserService
	Entitlements  *services.EntitlementService
	Orders        *services.OrderService
	Status        *services.OrderStatusService
	Subscriptions *services.SubscriptionService
	Catalog       *services.VendorCatalogService
	Bulk          *services.BulkOrderService
	Dashboard     *services.DashboardService
}

func NewServices(db *gorm.DB, opts Options) *Services {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.FromEnv()
	}
	store := opts.PurchaseStore
	if store == nil {
		store = services.NewSQLPurchaseStore(db)
	}
	var notifier services.OrderNotifier
	if opts.Hub != nil {
		notifier = opts.Hub
	}

	s := &Services{
		Auth:          services.NewAuthService(db),
		Users:         services.NewUserService(db),
		Entitlements:  services.NewEntitlementService(db),
		Status:        services.NewOrderStatusService(db, notifier),
		Subscriptions: services.NewSubscriptionService(db, store),
		Catalog:       services.NewVendorCatalogService(db),
		Bulk:          services.NewBulkOrderService(db),
	}
	s.Entitlements.Now = opts.Clock
	s.Status.Now = opts.Clock
	s.Subscriptions.Now = opts.Clock
	s.Subscriptions.PurchaseTTL = cfg.PurchaseTTL
	s.Bulk.Now = opts.Clock

	s.Orders = services.NewOrderService(db, s.Entitlements, notifier)
	s.Orders.MaxItemQuantity = cfg.MaxItemQuantity
	s.Dashboard = services.NewDashboardService(db, s.Subscriptions, s.Orders)
	s.Dashboard.Now = opts.Clock
	return s
}

func SetupRouter(db *gorm.DB, opts Options) (*gin.Engine, *Services) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.FromEnv()
	}
	if opts.Hub == nil {
		opts.Hub = tracking.NewHub()
	}
	svc := NewServices(db, opts)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}
	r.Use(middlewares.NewRateLimiter(cfg.RateLimit, burst).RateLimit())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(svc.Auth)
	catalogCtrl := controllers.NewCatalogController(db, svc.Subscriptions)
	residentCtrl := controllers.NewResidentController(svc.Entitlements, svc.Orders, svc.Subscriptions, svc.Dashboard)
	vendorCtrl := controllers.NewVendorController(svc.Catalog, svc.Orders, svc.Status)
	deliveryCtrl := controllers.NewDeliveryController(svc.Orders, svc.Status)
	dispatchCtrl := controllers.NewDispatchController(svc.Orders, svc.Status, svc.Users)
	adminCtrl := controllers.NewAdminController(svc.Dashboard, svc.Users)
	wardenCtrl := controllers.NewWardenController(svc.Users, svc.Bulk)
	trackingCtrl := controllers.NewTrackingController(opts.Hub, svc.Users, cfg.CORSOrigin)

	authRequired := middlewares.AuthMiddleware(svc.Auth)
	can := middlewares.RequireCapability

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}
	r.GET("/plans", catalogCtrl.ListPlans)
	r.GET("/meal-types", catalogCtrl.ListMealTypes)

	// Read-only order status feed
	r.GET("/ws/tracking", middlewares.WebSocketAuthMiddleware(svc.Auth), trackingCtrl.Stream)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(authRequired)
	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/profile", userCtrl.GetProfile)

	resident := r.Group("/resident")
	resident.Use(authRequired)
	{
		purchase := resident.Group("/")
		purchase.Use(can(services.CapSubscriptionPurchase), middlewares.PurchaseSecurityHeaders(), middlewares.LogPurchaseRequest())
		purchase.POST("/plans/:plan_id/subscribe", residentCtrl.Subscribe)
		purchase.GET("/payment", residentCtrl.GetPayment)
		purchase.POST("/payment/process", middlewares.PurchaseRateLimiter(), residentCtrl.ProcessPayment)

		resident.GET("/orders/daily", can(services.CapOrderPlace), residentCtrl.GetDailyOrder)
		resident.POST("/orders/daily", can(services.CapOrderPlace), residentCtrl.PlaceDailyOrder)
		resident.GET("/orders/:order_id/track", can(services.CapOrderTrack), residentCtrl.TrackOrder)
		resident.GET("/delivery-history", can(services.CapOrderTrack), residentCtrl.DeliveryHistory)
		resident.GET("/dashboard", can(services.CapOrderTrack), residentCtrl.GetDashboard)
	}

	vendor := r.Group("/vendor")
	vendor.Use(authRequired)
	{
		vendor.GET("/subscriptions", can(services.CapPlanOptIn), vendorCtrl.GetSubscriptions)
		vendor.PUT("/subscriptions", can(services.CapPlanOptIn), vendorCtrl.SetSubscriptions)
		vendor.GET("/menu-items", can(services.CapMenuManage), vendorCtrl.ListMenuItems)
		vendor.POST("/menu-items", can(services.CapMenuManage), vendorCtrl.CreateMenuItem)
		vendor.PATCH("/menu-items/:item_id", can(services.CapMenuManage), vendorCtrl.UpdateMenuItem)
		vendor.PUT("/daily-menus", can(services.CapMenuManage), vendorCtrl.PublishDailyMenu)
		vendor.GET("/orders", can(services.CapOrderPrepare), vendorCtrl.ListOrders)
		vendor.PATCH("/orders/:order_id/status", can(services.CapOrderPrepare), middlewares.StatusChangeLogger(), vendorCtrl.UpdateOrderStatus)
	}

	delivery := r.Group("/delivery")
	delivery.Use(authRequired, can(services.CapDeliveryUpdate))
	{
		delivery.GET("/orders", deliveryCtrl.ListOrders)
		delivery.GET("/history", deliveryCtrl.History)

		moves := delivery.Group("/orders/:order_id")
		moves.Use(middlewares.StatusChangeLogger())
		moves.PATCH("/status", deliveryCtrl.UpdateOrderStatus)
		moves.POST("/accept", deliveryCtrl.Accept)
		moves.POST("/reject", deliveryCtrl.Reject)
		moves.POST("/complete", deliveryCtrl.Complete)
	}

	admin := r.Group("/admin")
	admin.Use(authRequired)
	{
		admin.GET("/dashboard", can(services.CapDashboardView), adminCtrl.GetDashboardStats)
		admin.GET("/users", can(services.CapUserManage), adminCtrl.ListUsers)
		admin.PATCH("/users/:user_id/approve", can(services.CapUserManage), adminCtrl.ApproveUser)
		admin.PATCH("/users/:user_id/active", can(services.CapUserManage), adminCtrl.SetActive)
		mountDispatch(admin, dispatchCtrl)
	}

	warden := r.Group("/warden")
	warden.Use(authRequired)
	{
		warden.GET("/residents", can(services.CapResidentApprove), wardenCtrl.Residents)
		warden.PATCH("/residents/:user_id/approve", can(services.CapResidentApprove), wardenCtrl.ApproveResident)
		warden.GET("/bulk-orders", can(services.CapBulkOrder), wardenCtrl.ListBulkOrders)
		warden.POST("/bulk-orders", can(services.CapBulkOrder), wardenCtrl.PlaceBulkOrder)
		mountDispatch(warden, dispatchCtrl)
	}

	return r, svc
}

func mountDispatch(g *gin.RouterGroup, ctrl *controllers.DispatchController) {
	g.GET("/orders/pending", middlewares.RequireCapability(services.CapOrderOverview), ctrl.PendingOrders)
	g.GET("/delivery-agents", middlewares.RequireCapability(services.CapOrderDispatch), ctrl.DeliveryAgents)

	moves := g.Group("/orders/:order_id")
	moves.Use(middlewares.RequireCapability(services.CapOrderDispatch), middlewares.StatusChangeLogger())
	moves.PUT("/agent", ctrl.AssignAgent)
	moves.PATCH("/status", ctrl.UpdateOrderStatus)
}
