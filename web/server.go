// ABOUTME: HTTP server wiring: middleware, routes and the dependency bundle
// ABOUTME: Routes group per entity under /api
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/wllin/sheetcrm/config"
	"github.com/wllin/sheetcrm/services"
	"github.com/wllin/sheetcrm/store"
)

// Stores bundles every reader and writer the handlers reach.
type Stores struct {
	Contacts      *store.ContactReader
	ContactWriter *store.ContactWriter
	Links         *store.LinkWriter
	Companies     *store.CompanyReader
	CompanyWriter *store.CompanyWriter
	Opportunities *store.OpportunityReader
	OppWriter     *store.OpportunityWriter
	Interactions  *store.InteractionReader
	IntWriter     *store.InteractionWriter
	Events        *store.EventLogReader
	System        *store.SystemReader
}

type Server struct {
	Echo *echo.Echo

	cfg      *config.Config
	log      *zap.Logger
	stores   Stores
	eventSvc *services.EventLogService
	weekly   *services.WeeklyBusinessService
}

func NewServer(cfg *config.Config, log *zap.Logger, stores Stores, eventSvc *services.EventLogService, weekly *services.WeeklyBusinessService) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:     e,
		cfg:      cfg,
		log:      log,
		stores:   stores,
		eventSvc: eventSvc,
		weekly:   weekly,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api")

	api.GET("/contacts", s.handleSearchContacts)
	api.PUT("/contacts/:rowIndex", s.handleUpdateRawContact)
	api.GET("/contact-list", s.handleSearchContactList)

	api.GET("/companies", s.handleListCompanies)
	api.GET("/companies/:id", s.handleGetCompany)
	api.POST("/companies", s.handleCreateCompany)
	api.PUT("/companies/:id", s.handleUpdateCompany)

	api.GET("/opportunities", s.handleListOpportunities)
	api.POST("/opportunities", s.handleCreateOpportunity)
	api.POST("/opportunities/compute-value", s.handleComputeValue)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.PUT("/opportunities/:id", s.handleUpdateOpportunity)
	api.DELETE("/opportunities/:id", s.handleDeleteOpportunity)
	api.GET("/opportunities/:id/children", s.handleOpportunityChildren)
	api.GET("/opportunities/:id/interactions", s.handleOpportunityInteractions)
	api.GET("/opportunities/:id/events", s.handleOpportunityEvents)
	api.GET("/opportunities/:id/contacts", s.handleLinkedContacts)
	api.POST("/opportunities/:id/contacts", s.handleCreateLink)
	api.DELETE("/links/:linkId", s.handleDeactivateLink)

	api.GET("/interactions", s.handleListInteractions)
	api.POST("/interactions", s.handleCreateInteraction)
	api.PUT("/interactions/:id", s.handleUpdateInteraction)
	api.DELETE("/interactions/:id", s.handleDeleteInteraction)

	api.GET("/events", s.handleListEvents)
	api.GET("/events/:id", s.handleGetEvent)
	api.POST("/events", s.handleCreateEvent)
	api.PUT("/events/:id", s.handleUpdateEvent)
	api.DELETE("/events/:id", s.handleDeleteEvent)

	api.GET("/system-config", s.handleSystemConfig)
	api.GET("/users", s.handleListUsers)

	weekly := api.Group("/business/weekly")
	weekly.GET("", s.handleWeeklySummaryList)
	weekly.GET("/options", s.handleWeekOptions)
	weekly.GET("/:weekId", s.handleWeeklyDetails)
	weekly.POST("/entries", s.handleCreateWeeklyEntry)
	weekly.PUT("/entries/:recordId", s.handleUpdateWeeklyEntry)
	weekly.DELETE("/entries/:recordId", s.handleDeleteWeeklyEntry)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Start blocks serving HTTP until the context is canceled, then shuts the
// server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddr, s.cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Echo.Start(addr)
	}()
	s.log.Info("http server starting", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Echo.Shutdown(shutdownCtx)
	}
}

// modifier resolves who is making a mutation. There is no authentication
// layer; the client names itself through a header.
func modifier(c echo.Context) string {
	if u := c.Request().Header.Get("X-User-Name"); u != "" {
		return u
	}
	return "system"
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				log.Error("request", fields...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
