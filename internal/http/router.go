package httpserver

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyumbani/internal/auth"
	"nyumbani/internal/http/handlers"
	"nyumbani/internal/notify"
	"nyumbani/internal/payments"
	"nyumbani/internal/rbac"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	UploadDir string
	Payments  *payments.Service
	Notifier  *notify.Notifier
	Hub       *notify.Hub
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	db := deps.DB
	chk := rbac.Checker{DB: db}
	authMW := auth.JWT(db, deps.JWTSecret)
	optionalMW := auth.Optional(db, deps.JWTSecret)

	// Uploaded listing photos are served straight off disk.
	r.Static("/uploads", deps.UploadDir)

	// Public routes
	r.POST("/api/v1/auth/register", handlers.RegisterHandler(db, deps.JWTSecret))
	r.POST("/api/v1/auth/login", handlers.LoginHandler(db, deps.JWTSecret))
	r.GET("/api/v1/auth/logout", handlers.LogoutHandler())

	// Gateway callback: unauthenticated by design, the provider posts here.
	r.POST("/api/v1/callbacks/mpesa", handlers.MpesaCallback(deps.Payments))

	// Browsing is public; optional auth lets contact gating recognise
	// entitled viewers.
	r.GET("/api/v1/properties", handlers.ListProperties(db))
	r.GET("/api/v1/properties/:id", optionalMW, handlers.GetProperty(db, deps.Payments))

	api := r.Group("/api/v1", authMW)
	{
		api.GET("/me", handlers.MeHandler(db))

		// Landlord listing management
		api.POST("/properties", require(chk, "properties:write"), handlers.CreateProperty(db))
		api.PUT("/properties/:id", require(chk, "properties:write"), handlers.UpdateProperty(db))
		api.POST("/properties/:id/rented", require(chk, "properties:write"), handlers.MarkRented(db))
		api.POST("/properties/:id/images", require(chk, "properties:write"), handlers.UploadPropertyImage(db, deps.UploadDir))
		api.DELETE("/properties/:id/images/:imageID", require(chk, "properties:write"), handlers.DeletePropertyImage(db))
		api.GET("/my/properties", require(chk, "properties:write"), handlers.MyProperties(db))

		// Favorites
		api.POST("/properties/:id/favorite", handlers.AddFavorite(db))
		api.DELETE("/properties/:id/favorite", handlers.RemoveFavorite(db))
		api.GET("/my/favorites", handlers.ListFavorites(db))

		// Viewing requests
		api.POST("/viewings", require(chk, "viewings:request"), handlers.CreateViewingRequest(db, deps.Notifier))
		api.GET("/my/viewings", handlers.MyViewingRequests(db))
		api.GET("/my/listings/viewings", require(chk, "properties:write"), handlers.LandlordViewingRequests(db))
		api.POST("/viewings/:id/respond", require(chk, "properties:write"), handlers.RespondViewing(db, deps.Notifier))
		api.POST("/viewings/:id/cancel", handlers.CancelViewing(db))

		// Contact payments
		api.POST("/payments", handlers.InitiatePayment(db, deps.Payments))
		api.GET("/payments/:id", handlers.PaymentStatus(deps.Payments))
		api.GET("/my/unlocks", handlers.MyUnlocks(deps.Payments))

		// Notifications
		api.GET("/notifications", handlers.ListNotifications(db))
		api.POST("/notifications/:id/read", handlers.MarkNotificationRead(db))
		api.POST("/notifications/read-all", handlers.MarkAllNotificationsRead(db))

		// Admin
		api.GET("/admin/users", require(chk, "users:read"), handlers.ListUsers(db))
		api.POST("/admin/users/:id/deactivate", require(chk, "users:write"), handlers.DeactivateUser(db))
		api.POST("/admin/users/:id/activate", require(chk, "users:write"), handlers.ActivateUser(db))
		api.GET("/admin/properties/pending", require(chk, "properties:moderate"), handlers.ListPendingProperties(db))
		api.POST("/admin/properties/:id/approve", require(chk, "properties:moderate"), handlers.ApproveProperty(db, deps.Notifier))
		api.POST("/admin/properties/:id/reject", require(chk, "properties:moderate"), handlers.RejectProperty(db, deps.Notifier))
		api.GET("/admin/payments", require(chk, "payments:read"), handlers.AdminListPayments(db))
		api.GET("/admin/activity", require(chk, "activity:read"), handlers.ListActivity(db))
	}

	// Websocket authenticates over the socket itself, not the middleware.
	r.GET("/api/v1/ws/notifications", handlers.NotificationsWS(db, deps.Hub, deps.JWTSecret))

	return r
}

func require(chk rbac.Checker, permKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, ok := auth.FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		allowed, err := chk.Can(c, cl.UserID, permKey)
		if err != nil || !allowed {
			c.AbortWithStatusJSON(403, gin.H{"error": "forbidden", "missing": permKey})
			return
		}
		c.Next()
	}
}
