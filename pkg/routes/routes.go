package pkg

import (
	"context"
	"net/http"
	"os"

	"CampusBroadcast/internal/config"
	"CampusBroadcast/internal/directory"
	"CampusBroadcast/internal/messaging"
	"CampusBroadcast/internal/persist"
	"CampusBroadcast/pkg/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var EchoModules = fx.Module("campus",
	fx.Provide(config.NewLogger),
	fx.Provide(NewEchoServer),
	fx.Provide(config.NewMongoDBConfig),
	fx.Provide(config.NewMongoDBClient),
	fx.Provide(config.NewResendConfig),
	fx.Provide(config.NewEmailService),
	fx.Provide(func(e *config.EmailService) messaging.EmailDispatcher { return e }),
	fx.Provide(persist.NewSyncer),
	fx.Provide(directory.NewRepository),
	fx.Provide(directory.NewService),
	fx.Provide(directory.NewHandler),
	fx.Provide(messaging.NewMessageStore),
	fx.Provide(messaging.NewNotificationStore),
	fx.Provide(messaging.NewCommentStore),
	fx.Provide(messaging.NewFanout),
	fx.Provide(messaging.NewCommentThread),
	fx.Provide(messaging.NewEngagementTracker),
	fx.Provide(messaging.NewService),
	fx.Provide(messaging.NewHandler),
	fx.Invoke(LoadState),
	fx.Invoke(RegisterRoutes))

func NewEchoServer(lc fx.Lifecycle, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Server starting", zap.String("port", port))
			go func() {
				if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
					log.Fatal("Failed to start the server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down the server")
			return e.Shutdown(ctx)
		},
	})
	return e
}

// LoadState warms local state from the remote store on startup and drains
// pending remote writes on shutdown.
func LoadState(lc fx.Lifecycle, dir *directory.Service, svc *messaging.Service, syncer *persist.Syncer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			dir.Load(ctx)
			svc.Load(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			syncer.Wait()
			return nil
		},
	})
}

func RegisterRoutes(e *echo.Echo, msg *messaging.Handler, dir *directory.Handler) {
	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware)
	api.Use(middleware.CasbinMiddleware)

	api.GET("/messages", msg.ListMessages)
	api.POST("/messages", msg.CreateMessage)
	api.POST("/messages/recipients", msg.GetRecipients)
	api.POST("/messages/:id/read", msg.MarkRead)
	api.POST("/messages/:id/acknowledge", msg.Acknowledge)
	api.GET("/messages/:id/stats", msg.Stats)
	api.GET("/messages/:id/comments", msg.Thread)
	api.POST("/messages/:id/comments", msg.AddComment)
	api.POST("/messages/:id/notifications/read", msg.MarkMessageNotificationsRead)
	api.DELETE("/comments/:id", msg.DeleteComment)

	api.GET("/notifications", msg.Notifications)
	api.POST("/notifications/:id/read", msg.MarkNotificationRead)

	api.GET("/users", dir.ListUsers)
	api.GET("/groups", dir.ListGroups)
	api.GET("/departments", dir.ListDepartments)
	api.PUT("/departments/rename", dir.RenameDepartment)
}
