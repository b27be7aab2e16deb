package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portfolio-server/internal/config"
	"github.com/vovakirdan/portfolio-server/internal/contact"
	"github.com/vovakirdan/portfolio-server/internal/feed"
)

const rateLimitWindow = time.Minute

// NewServer builds the HTTP server with all routes.
// The websocket feed is served outside gin so the connection can be hijacked.
func NewServer(svc *contact.Service, hub *feed.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))
	// Forwarded headers count for rate limiting only when sent by a listed proxy.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}

	limiter := newRateLimiter(cfg.ContactRateLimit, rateLimitWindow)
	stop := make(chan struct{})
	limiter.startReset(stop)
	limited := RateLimitMiddleware(limiter)

	contactHandlers := NewContactHandlers(svc, logger)
	resumeHandler := NewResumeHandler(cfg.Resume, logger)

	router.GET("/health", healthHandler)

	api := router.Group("/api")
	{
		api.POST("/contact", limited, contactHandlers.Submit)
		api.GET("/contact-submissions", contactHandlers.List)
		api.GET("/test-email", limited, contactHandlers.TestEmail)
		api.GET("/download-resume", resumeHandler.Download)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws/submissions", NewFeedHandler(hub, cfg.WSOrigins, logger))
	mux.Handle("/", router)

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	server.RegisterOnShutdown(func() { close(stop) })
	return server
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
