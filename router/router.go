package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/controllers"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/realtime"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/storage"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. main builds it once.
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Tokens       *utils.TokenManager
	Hub          *realtime.Hub
	Storage      storage.Storage
	Reservations *services.ReservationService
	Auth         *services.AuthService
	Chatbot      *services.ChatbotService

	// Optional; defaults are used when nil.
	AuthLimiter *middlewares.RateLimiter
	ChatLimiter *middlewares.RateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()

	r.Use(middlewares.RequestID())
	r.Use(middlewares.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	if d.AuthLimiter == nil {
		d.AuthLimiter = middlewares.NewRateLimiter(6*time.Second, 10)
	}
	if d.ChatLimiter == nil {
		d.ChatLimiter = middlewares.NewRateLimiter(3*time.Second, 5)
	}

	reservationCtrl := controllers.NewReservationController(d.Reservations, cfg.Pagination)
	foodCtrl := controllers.NewFoodController(d.DB, d.Storage, cfg.Pagination)
	categoryCtrl := controllers.NewCategoryController(d.DB, cfg.Pagination)
	customerCtrl := controllers.NewCustomerController(d.DB, cfg.Pagination)
	authCtrl := controllers.NewAuthController(d.Auth)
	uploadCtrl := controllers.NewUploadController(d.Storage, cfg.Upload.MaxSize)
	chatCtrl := controllers.NewChatbotController(d.Chatbot)
	wsCtrl := controllers.NewWSController(d.Hub, cfg.CORSOrigins)

	requireAuth := middlewares.AuthMiddleware(d.Tokens)
	staffOnly := middlewares.RequireRole(models.RoleAdmin, models.RoleStaff)

	if cfg.Upload.Backend == "local" && cfg.Upload.Dir != "" {
		r.Static(localMountPath(cfg.Upload.BaseURL), cfg.Upload.Dir)
	}

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			utils.RespondError(c, utils.NewDatabaseError(err))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "OK", gin.H{"status": "ok", "clients": d.Hub.Count()})
	})

	r.GET("/ws", requireAuth, staffOnly, wsCtrl.Connect)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", d.AuthLimiter.Middleware(), authCtrl.Register)
		auth.POST("/login", d.AuthLimiter.Middleware(), authCtrl.Login)
		auth.POST("/refresh", d.AuthLimiter.Middleware(), authCtrl.Refresh)
		auth.POST("/logout", requireAuth, authCtrl.Logout)
		auth.GET("/profile", requireAuth, authCtrl.Profile)
	}

	// Reservations: creating and checking availability are public.
	datban := api.Group("/datban")
	{
		datban.POST("", reservationCtrl.CreateReservation)
		datban.GET("/availability", reservationCtrl.CheckAvailability)

		staff := datban.Group("", requireAuth, staffOnly)
		staff.GET("", reservationCtrl.GetReservations)
		staff.GET("/stats", reservationCtrl.GetStats)
		staff.GET("/export", reservationCtrl.ExportDay)
		staff.DELETE("/bulk", reservationCtrl.BulkDeleteReservations)
		staff.GET("/:id", reservationCtrl.GetReservationByID)
		staff.PUT("/:id", reservationCtrl.UpdateReservation)
		staff.PATCH("/:id/status", reservationCtrl.UpdateReservationStatus)
		staff.DELETE("/:id", reservationCtrl.DeleteReservation)
	}

	foods := api.Group("/foods")
	{
		foods.GET("", foodCtrl.GetAllFoods)
		foods.GET("/:id", foodCtrl.GetFoodByID)
		foods.POST("", requireAuth, staffOnly, foodCtrl.CreateFood)
		foods.PUT("/:id", requireAuth, staffOnly, foodCtrl.UpdateFood)
		foods.DELETE("/:id", requireAuth, staffOnly, foodCtrl.DeleteFood)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryCtrl.GetAllCategories)
		categories.GET("/:id", categoryCtrl.GetCategoryByID)
		categories.POST("", requireAuth, staffOnly, categoryCtrl.CreateCategory)
		categories.PUT("/:id", requireAuth, staffOnly, categoryCtrl.UpdateCategory)
		categories.DELETE("/:id", requireAuth, staffOnly, categoryCtrl.DeleteCategory)
	}

	customers := api.Group("/customers", requireAuth, staffOnly)
	{
		customers.GET("", customerCtrl.GetAllCustomers)
		customers.POST("", customerCtrl.CreateCustomer)
		customers.GET("/:id", customerCtrl.GetCustomerByID)
		customers.PUT("/:id", customerCtrl.UpdateCustomer)
		customers.DELETE("/:id", customerCtrl.DeleteCustomer)
	}

	upload := api.Group("/upload", requireAuth, staffOnly)
	{
		upload.POST("", uploadCtrl.UploadImage)
		upload.DELETE("/:key", uploadCtrl.DeleteImage)
	}

	api.POST("/chatbot", d.ChatLimiter.Middleware(), chatCtrl.Chat)

	r.NoRoute(func(c *gin.Context) {
		utils.RespondError(c, utils.NewNotFoundError("Route not found"))
	})

	return r
}

// localMountPath derives the static route from the public upload URL,
// e.g. http://host/uploads/menu_images -> /uploads/menu_images.
func localMountPath(baseURL string) string {
	p := baseURL
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		if j := strings.Index(p, "/"); j >= 0 {
			p = p[j:]
		} else {
			p = "/"
		}
	}
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return "/uploads"
	}
	return p
}
