package handlers

import (
	"net/http"
	"os"

	"palengke-backend/internal/auth"
	"palengke-backend/internal/cart"
	"palengke-backend/internal/checkout"
	"palengke-backend/internal/orders"
	"palengke-backend/internal/products"
	"palengke-backend/internal/stalls"
	"palengke-backend/internal/stores/kafka"
	"palengke-backend/internal/users"
	"palengke-backend/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	u        users.Conf
	st       stalls.Conf
	p        products.Conf
	cConf    cart.Conf
	o        orders.Conf
	co       checkout.Service
	k        *kafka.Conf // nil when events are disabled
	authKeys *auth.Keys
	validate *validator.Validate
}

func NewHandler(u users.Conf, st stalls.Conf, p products.Conf, cConf cart.Conf,
	o orders.Conf, co checkout.Service, k *kafka.Conf, authKeys *auth.Keys) *Handler {
	return &Handler{
		u:        u,
		st:       st,
		p:        p,
		cConf:    cConf,
		o:        o,
		co:       co,
		k:        k,
		authKeys: authKeys,
		validate: validator.New(),
	}
}

func API(h *Handler, m *middleware.Mid) *gin.Engine {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	//apply middleware to all the endpoints using r.Use
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)
	r.POST("/webhook", h.Webhook)

	usersGroup := r.Group("/users")
	{
		usersGroup.POST("/signup", h.Signup)
		usersGroup.POST("/login", h.Login)
	}

	stallsGroup := r.Group("/stalls")
	{
		stallsGroup.GET("", h.ListStalls)
		stallsGroup.GET("/:id", h.GetStall)

		stallsGroup.Use(m.Authentication())
		stallsGroup.POST("", m.Authorize(h.CreateStall, auth.RoleVendor))
		stallsGroup.PUT("/:id", m.Authorize(h.UpdateStall, auth.RoleVendor))
	}

	productsGroup := r.Group("/products")
	{
		productsGroup.GET("/list", h.ListProducts)
		productsGroup.GET("/view/:id", h.GetProduct)

		productsGroup.Use(m.Authentication())
		productsGroup.POST("/create", m.Authorize(h.CreateProduct, auth.RoleVendor))
		productsGroup.PUT("/update/:id", m.Authorize(h.UpdateProduct, auth.RoleVendor))
		productsGroup.DELETE("/delete/:id", m.Authorize(h.DeleteProduct, auth.RoleVendor))
	}

	cartGroup := r.Group("/cart")
	{
		cartGroup.Use(m.Authentication())
		cartGroup.GET("", m.Authorize(h.GetCart, auth.RoleBuyer))
		cartGroup.POST("/items", m.Authorize(h.AddToCart, auth.RoleBuyer))
		cartGroup.PUT("/items/:lineItemID", m.Authorize(h.UpdateCartItem, auth.RoleBuyer))
		cartGroup.DELETE("/items/:lineItemID", m.Authorize(h.RemoveFromCart, auth.RoleBuyer))
		cartGroup.DELETE("", m.Authorize(h.ClearCart, auth.RoleBuyer))
	}

	checkoutGroup := r.Group("/checkout")
	{
		checkoutGroup.Use(m.Authentication())
		checkoutGroup.POST("", m.Authorize(h.Checkout, auth.RoleBuyer))
	}

	ordersGroup := r.Group("/orders")
	{
		ordersGroup.Use(m.Authentication())
		ordersGroup.GET("/vendor", m.Authorize(h.VendorOrders, auth.RoleVendor))
		ordersGroup.GET("/mine", m.Authorize(h.BuyerOrders, auth.RoleBuyer))
	}

	r.GET("/search/suggest", h.Suggest)

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
