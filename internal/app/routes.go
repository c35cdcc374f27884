package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arcaz22/Productivity-Tracker/internal/auth"
	"github.com/Arcaz22/Productivity-Tracker/internal/master"
	"github.com/Arcaz22/Productivity-Tracker/internal/server"
	"github.com/Arcaz22/Productivity-Tracker/internal/server/middleware"
	"github.com/Arcaz22/Productivity-Tracker/internal/user"
)

// Role names known to the realm.
const (
	RoleAdmin          = "admin"
	RoleProjectManager = "pm"
)

type routeDeps struct {
	verifier *auth.Verifier
	auth     *auth.Handler
	user     *user.Handler
	master   *master.Handler
	appName  string
}

// registerRoutes keeps the API's published paths: no version prefix,
// underscore resource names, and the original operation names.
func registerRoutes(engine *gin.Engine, deps routeDeps) {
	engine.GET("/", func(c *gin.Context) {
		server.RespondOK(c, "Welcome to "+deps.appName, nil)
	})
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	authGroup := engine.Group("/auth")
	{
		authGroup.POST("/login", deps.auth.Login)
		authGroup.POST("/add-user",
			middleware.RequireRoles(deps.verifier, RoleAdmin),
			deps.auth.Register,
		)
	}

	userGroup := engine.Group("/user", middleware.Authenticate(deps.verifier))
	{
		userGroup.GET("/me", deps.user.Me)
		userGroup.POST("/change-password", deps.user.ChangePassword)
		userGroup.PATCH("/me/profile", deps.user.UpdateProfile)
	}

	categories := engine.Group("/activity_categories",
		middleware.RequireRoles(deps.verifier, RoleProjectManager),
	)
	{
		categories.POST("/add", deps.master.AddCategory)
		categories.GET("/list", deps.master.ListCategories)
		categories.PUT("/:id", deps.master.UpdateCategory)
		categories.DELETE("/:id", deps.master.DeleteCategory)
	}

	standards := engine.Group("/performance_standards",
		middleware.RequireRoles(deps.verifier, RoleProjectManager),
	)
	{
		standards.POST("/add", deps.master.AddStandard)
		standards.GET("/list", deps.master.ListStandards)
		standards.PUT("/:id", deps.master.UpdateStandard)
		standards.DELETE("/:id", deps.master.DeleteStandard)
	}
}
