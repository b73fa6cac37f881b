package handler

import (
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fekuna/omnipos-menu-service/internal/apperr"
	"github.com/fekuna/omnipos-menu-service/internal/branding"
	"github.com/fekuna/omnipos-menu-service/internal/catalog"
	"github.com/fekuna/omnipos-menu-service/internal/notice"
	"github.com/fekuna/omnipos-menu-service/internal/style"
	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type MenuHandler struct {
	catalog  catalog.Store
	branding branding.Store
	head     *style.Head
	notices  *notice.Recorder
	logger   logger.ZapLogger
}

func NewMenuHandler(cat catalog.Store, brand branding.Store, head *style.Head, notices *notice.Recorder, log logger.ZapLogger) *MenuHandler {
	return &MenuHandler{
		catalog:  cat,
		branding: brand,
		head:     head,
		notices:  notices,
		logger:   log,
	}
}

type AppConfig struct {
	JWTSecret string
	// AllowOrigins is a comma separated CORS origin list; "*" allows any.
	AllowOrigins string
}

// NewApp builds the fiber app with every route mounted.
func NewApp(h *MenuHandler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestLogger(h.logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h.Register(app.Group("/api/v1"), JWTMiddleware(cfg.JWTSecret, h.logger))
	return app
}

func (h *MenuHandler) Register(api fiber.Router, authMW fiber.Handler) {
	api.Get("/branding", h.GetBranding)
	api.Get("/branding/theme.css", h.GetThemeCSS)
	api.Get("/branding/head", h.GetHead)
	api.Get("/themes", h.ListThemes)
	api.Get("/categories", h.ListVisibleCategories)
	api.Get("/categories/:id/dishes", h.ListVisibleDishes)

	admin := api.Group("/admin", authMW)
	admin.Get("/catalog", h.GetCatalog)
	admin.Post("/categories", h.CreateCategory)
	admin.Put("/categories/:id", h.UpdateCategory)
	admin.Delete("/categories/:id", h.DeleteCategory)
	admin.Patch("/categories/:id/visibility", h.ToggleCategoryVisibility)
	admin.Post("/dishes", h.CreateDish)
	admin.Put("/dishes/:id", h.UpdateDish)
	admin.Delete("/dishes/:id", h.DeleteDish)
	admin.Patch("/dishes/:id/visibility", h.ToggleDishVisibility)
	admin.Put("/branding/:field", h.UpdateBranding)
	admin.Post("/branding/logo", h.UploadLogo)
	admin.Post("/branding/reset", h.ResetBranding)
	admin.Get("/notices", h.ListNotices)
}

func (h *MenuHandler) ListNotices(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	return c.JSON(fiber.Map{"success": true, "data": h.notices.Recent(limit)})
}

// respondError maps store errors to HTTP statuses. The stores have already
// logged and noticed the failure.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var (
		upErr    *apperr.UploadError
		fetchErr *apperr.FetchError
		writeErr *apperr.WriteError
	)
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrReferenced):
		status = fiber.StatusConflict
	case errors.As(err, &upErr), errors.As(err, &writeErr):
		status = fiber.StatusBadGateway
	case errors.As(err, &fetchErr):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
		"detail":  apperr.Detail(err),
	})
}

func requestLogger(log logger.ZapLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("http request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}
