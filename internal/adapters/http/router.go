package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Conf/internal/adapters/signal"
	"github.com/dkeye/Conf/internal/app/orch"
	"github.com/dkeye/Conf/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: int(cfg.TokenTTL.Seconds()), HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("ConfSessions", store))
	r.Use(TokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	ctrl := signal.NewSignalWSController(o, cfg)
	r.GET("/ws/rooms/:slug", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	h := &RoomHandlers{Orch: o}
	api := r.Group("/api", RequireUser(o.Auth))
	{
		api.PUT("/users/me/public_key", h.PutPublicKey)

		room := api.Group("/rooms/:slug")
		room.GET("/state", h.State)
		room.GET("/participants", h.Participants)
		room.GET("/messages", h.Messages)
		room.DELETE("/messages/:id", h.DeleteMessage)
		room.GET("/events", h.Events)
		room.POST("/keys", h.InitRoomKey)
		room.GET("/keys/mine", h.MyShare)
		room.POST("/members/:user_id/role", h.SetRole)
		room.POST("/members/:user_id/media", h.ForceMedia)
		room.POST("/members/:user_id/speak", h.SetCanSpeak)
		room.POST("/members/:user_id/kick", h.Kick)
	}

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
