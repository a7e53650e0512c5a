package routes

import (
	"encoding/json"
	"net/http"

	"github.com/Jmdec/ipponyari-sub001/configs"
	"github.com/Jmdec/ipponyari-sub001/controllers"
	"github.com/Jmdec/ipponyari-sub001/middlewares"
	"github.com/Jmdec/ipponyari-sub001/notify"
	"github.com/Jmdec/ipponyari-sub001/repository"
	"github.com/Jmdec/ipponyari-sub001/services"
	"github.com/Jmdec/ipponyari-sub001/upstream"
	"github.com/Jmdec/ipponyari-sub001/utils"
	"github.com/Jmdec/ipponyari-sub001/ws"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, cfg *configs.Config, hub *ws.NotifyHub, dispatcher *notify.Dispatcher) {
	r.Use(middlewares.CORSMiddleware())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	client := upstream.NewClient(cfg.APIBaseURL, cfg.UpstreamTimeout)

	cartRepo := repository.NewCartRepository(configs.DB())
	cartSvc := services.NewCartService(cartRepo)
	cartCtrl := controllers.NewCartController(cartSvc)

	get := http.MethodGet
	post := http.MethodPost
	put := http.MethodPut
	patch := http.MethodPatch
	del := http.MethodDelete
	crud := []string{get, post, put, patch, del}

	api := r.Group("/api")

	// Storefront catalog: public reads, admin-gated writes. Products and
	// chefs carry image uploads, blogs carry cover images.
	register(client, api, "/products", controllers.Resource{Methods: crud, Public: []string{get}, BodyKind: controllers.BodyForm, FlattenList: true})
	register(client, api, "/chefs", controllers.Resource{Methods: crud, Public: []string{get}, BodyKind: controllers.BodyForm})
	register(client, api, "/blogs", controllers.Resource{Methods: crud, Public: []string{get}, BodyKind: controllers.BodyForm, FlattenList: true})
	register(client, api, "/announcements", controllers.Resource{Methods: crud, Public: []string{get}})
	register(client, api, "/events", controllers.Resource{Methods: crud, Public: []string{get}})

	// Guests may read and submit testimonials; moderation needs auth.
	register(client, api, "/testimonials", controllers.Resource{Methods: crud, Public: []string{get, post}})

	// Customer account data rides on the upstream token.
	register(client, api, "/addresses", controllers.Resource{Methods: crud})

	// Reservations: anyone can book; a successful booking pings the admins.
	resv := controllers.NewProxyController(client, controllers.Resource{Path: "/api/reservations", Methods: crud, Public: []string{post}})
	resv.AfterCreate = func(c *gin.Context, status int, body json.RawMessage) {
		dispatcher.Dispatch(notify.Event{Kind: "reservation.created", Payload: body})
	}
	resv.Register(api.Group("/reservations"))

	// Orders need a logged-in customer; checkout clears the cart that the
	// session token points at and pings the admins.
	orders := controllers.NewProxyController(client, controllers.Resource{Path: "/api/orders", Methods: crud})
	orders.AfterCreate = func(c *gin.Context, status int, body json.RawMessage) {
		if cartID := utils.CurrentCartID(c); cartID != "" {
			cartSvc.Clear(cartID)
		}
		dispatcher.Dispatch(notify.Event{Kind: "order.placed", Payload: body})
	}
	orders.Register(api.Group("/orders", middlewares.CartSession(cfg.JWTSecret)))

	// Auth is owned by the origin; credentials and tokens pass through.
	login := controllers.NewProxyController(client, controllers.Resource{Path: "/api/auth/login", Methods: []string{post}, Public: []string{post}})
	login.Register(api.Group("/auth/login"))
	registerProxy := controllers.NewProxyController(client, controllers.Resource{Path: "/api/auth/register", Methods: []string{post}, Public: []string{post}})
	registerProxy.Register(api.Group("/auth/register"))
	me := controllers.NewProxyController(client, controllers.Resource{Path: "/api/auth/me", Methods: []string{get}})
	api.GET("/auth/me", middlewares.RequireBearer(), me.List)

	// Cart: session-scoped, served locally.
	cart := api.Group("/cart", middlewares.CartSession(cfg.JWTSecret))
	{
		cart.GET("", cartCtrl.Get)
		cart.POST("/items", cartCtrl.Add)
		cart.PATCH("/items/:id", cartCtrl.UpdateQty)
		cart.DELETE("/items/:id", cartCtrl.RemoveItem)
		cart.DELETE("", cartCtrl.Clear)
	}

	// Admin event stream
	r.GET("/ws/admin", middlewares.WSAuthMiddleware(client), hub.HandleWebSocket)
}

func register(client *upstream.Client, api *gin.RouterGroup, path string, res controllers.Resource) {
	res.Path = "/api" + path
	controllers.NewProxyController(client, res).Register(api.Group(path))
}
