package handler

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"linkwise/internal/middleware"
	"linkwise/internal/service"
)

type RouterDeps struct {
	Links       *service.LinkService
	Auth        *service.AuthService
	CORSOrigins []string
	Logger      logrus.FieldLogger
}

// NewRouter builds the gin engine serving the API and the page shells.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(deps.CORSOrigins))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	pages := NewPageHandler()
	r.GET("/", pages.Dashboard)
	r.GET("/dashboard", pages.Dashboard)
	r.GET("/apps/linkwise/", pages.Linkwise)
	r.GET("/apps/turbodo/", pages.TurboDo)

	RegisterRoutes(r.Group("/api"), deps)
	return r
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	links := NewLinkHandler(deps.Links)
	auth := NewAuthHandler(deps.Auth)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	api.POST("/auth/signup", auth.SignUp)
	api.POST("/auth/signin", auth.SignIn)

	authGroup := api.Group("")
	authGroup.Use(middleware.BearerAuth(deps.Auth))
	authGroup.POST("/auth/signout", auth.SignOut)
	authGroup.GET("/links", links.List)
	authGroup.GET("/links/cards", links.Cards)
	authGroup.POST("/links", links.Create)
	authGroup.DELETE("/links/:id", links.Delete)
}
