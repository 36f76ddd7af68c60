// internal/api/routes/routes.go
package routes

import (
	"time"

	"food-rescue-api-server/config"
	"food-rescue-api-server/internal/api/handlers"
	"food-rescue-api-server/internal/api/middleware"
	"food-rescue-api-server/internal/auth"
	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"
	"food-rescue-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies là các thành phần mà router cần.
type Dependencies struct {
	Config      config.Config
	Coordinator *donation.Coordinator
	Store       donation.Store
	Actors      donation.ActorRegistry
	Tokens      *auth.Tokens
	Hub         *socket.Hub
}

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if allowsAll(deps.Config.Server.CORSAllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.Config.Server.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	// Khởi tạo các handlers
	actorHandler := &handlers.ActorHandler{Actors: deps.Actors, Store: deps.Store, Tokens: deps.Tokens}
	donationHandler := &handlers.DonationHandler{Coordinator: deps.Coordinator}
	webSocketHandler := &handlers.WebSocketHandler{Hub: deps.Hub, Tokens: deps.Tokens, SendBuffer: deps.Config.Realtime.SendBuffer}

	apiV1 := router.Group("/api/v1")
	{
		// Route cho WebSocket, xác thực bằng token trên query
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/signup", actorHandler.Signup)
			authRoutes.POST("/login", actorHandler.Login)
		}
		apiV1.GET("/leaderboard", actorHandler.GetLeaderboard)

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===
		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(deps.Tokens))

		donations := protected.Group("/donations")
		{
			donations.GET("/:id", donationHandler.GetDonation)
			donations.GET("/:id/details", donationHandler.GetDonationDetails)
			donations.GET("/accepted", donationHandler.GetAccepted)
			donations.DELETE("/:id", donationHandler.DeleteDonation)

			restaurant := donations.Group("")
			restaurant.Use(middleware.Authorize(models.RoleRestaurant))
			{
				restaurant.POST("", donationHandler.CreateDonation)
				restaurant.GET("/mine", donationHandler.GetMyDonations)
				restaurant.POST("/:id/photo", donationHandler.UploadPhoto)
			}

			ngo := donations.Group("")
			ngo.Use(middleware.Authorize(models.RoleNGO))
			{
				ngo.GET("/available", donationHandler.GetAvailable)
				ngo.GET("/ngo/mine", donationHandler.GetAcceptedByMe)
				ngo.PUT("/:id/accept", donationHandler.AcceptDonation)
			}
		}

		volunteer := protected.Group("/volunteer")
		volunteer.Use(middleware.Authorize(models.RoleVolunteer))
		{
			volunteer.GET("/donations", donationHandler.GetForVolunteers)
			volunteer.PUT("/donations/:id/pickup", donationHandler.PickupDonation)
			volunteer.PUT("/donations/:id/deliver", donationHandler.DeliverDonation)
		}
	}

	return router
}

// allowsAll also covers an empty list, which cors.New would reject.
func allowsAll(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
