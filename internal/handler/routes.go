package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/research-portal-api/internal/middleware"
	"github.com/noah-isme/research-portal-api/internal/models"
)

// Router groups every HTTP handler served by the API.
type Router struct {
	Auth    *AuthHandler
	Profile *ProfileHandler
	Uploads *UploadHandler
	Admin   *AdminHandler
	Events  *EventHandler
	Media   *MediaHandler
	Metrics *MetricsHandler

	Tokens         middleware.TokenValidator
	Audit          middleware.AuditWriter
	Logger         *zap.Logger
	TrustedProxies []string

	// Body caps for the multipart routes. Zero leaves a route uncapped.
	UploadBodyLimit  int64
	ProfileBodyLimit int64
}

// Register mounts the API under prefix. Observability and media routes are
// mounted on the root router.
func (rt Router) Register(r *gin.Engine, prefix string) {
	if rt.Metrics != nil {
		r.GET("/health", rt.Metrics.Health)
		r.GET("/ready", rt.Metrics.Ready)
		r.GET("/metrics", rt.Metrics.Prometheus)
	}
	if rt.Media != nil {
		r.GET("/media/*path", rt.Media.Serve)
	}

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta(), middleware.TrustProxies(rt.TrustedProxies))
	authRequired := middleware.JWT(rt.Tokens)

	auth := api.Group("/auth")
	auth.POST("/register", rt.Auth.Register)
	auth.POST("/login", rt.Auth.Login)
	auth.POST("/refresh", rt.Auth.Refresh)
	auth.POST("/logout", authRequired, rt.Auth.Logout)
	auth.POST("/change-password", authRequired, rt.Auth.ChangePassword)
	api.GET("/me/", authRequired, rt.Auth.Me)

	api.GET("/profile/", authRequired, rt.Profile.Get)
	profileBody := middleware.LimitBody(rt.ProfileBodyLimit)
	api.PUT("/profile/", authRequired, profileBody, rt.Profile.Update)
	api.PATCH("/profile/", authRequired, profileBody, rt.Profile.Update)

	api.POST("/upload/", authRequired, middleware.LimitBody(rt.UploadBodyLimit), rt.Uploads.Submit)
	api.GET("/my-uploads/", authRequired, rt.Uploads.ListMine)
	api.GET("/innovations/public-list/", rt.Uploads.PublicList)
	api.GET("/book/:id/", middleware.OptionalJWT(rt.Tokens), rt.Uploads.Detail)
	api.GET("/events/", rt.Events.List)

	admin := api.Group("/admin", authRequired, middleware.RequireStaff())
	admin.GET("/uploads/", rt.Admin.ListUploads)
	admin.GET("/uploads/export", middleware.Audit(rt.Audit, rt.Logger, models.AuditActionUploadExport, models.AuditResourceUpload), rt.Admin.ExportUploads)
	admin.PATCH("/uploads/:id/", rt.Admin.ReviewUpload)
	admin.GET("/users/", rt.Admin.ListUsers)
	admin.POST("/users/", rt.Admin.CreateUser)
	admin.GET("/events/", rt.Events.List)
	admin.POST("/events/", rt.Events.Create)
}
