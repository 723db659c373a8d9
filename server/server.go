// Package server exposes the generator over a local HTTP API for the UI.
package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"

	"github.com/beauNate/qwen-image-generator/client"
	"github.com/beauNate/qwen-image-generator/refine"
	"github.com/beauNate/qwen-image-generator/sequencer"
	"github.com/beauNate/qwen-image-generator/store"
)

// Server wires the engine client, the prompt refiner, the persistent store
// and the request queue behind one HTTP surface.
type Server struct {
	engine  *client.Client
	gen     *client.Generator
	refiner *refine.Refiner
	store   *store.Store
	queue   *sequencer.Queue
	logger  *slog.Logger

	// outputDir, when set, is served under /output so the UI can fetch
	// artifacts without going through the engine's /view endpoint.
	outputDir string
}

func New(engine *client.Client, refiner *refine.Refiner, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  engine,
		gen:     client.NewGenerator(engine),
		refiner: refiner,
		store:   st,
		queue:   sequencer.NewQueue(),
		logger:  logger,
	}
}

// ServeOutputs exposes dir under /output.
func (s *Server) ServeOutputs(dir string) {
	s.outputDir = dir
}

// App builds the fiber application with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New()

	if s.outputDir != "" {
		app.Get("/output/*", static.New(s.outputDir))
	}

	app.Get("/health", s.handleHealth)

	app.Post("/generate", s.handleGenerate)
	app.Post("/batch", s.handleBatch)
	app.Post("/upload", s.handleUpload)
	app.Get("/progress/:id", s.handleProgress)
	app.Get("/wait/:id", s.handleWait)
	app.Post("/interrupt", s.handleInterrupt)

	app.Post("/refine", s.handleRefine)

	app.Get("/queue", s.handleQueueList)
	app.Post("/queue", s.handleQueueAdd)
	app.Delete("/queue/:id", s.handleQueueRemove)
	app.Delete("/queue", s.handleQueueClear)
	app.Post("/queue/start", s.handleQueueStart)
	app.Post("/queue/stop", s.handleQueueStop)

	app.Get("/favorites", s.handleFavoritesGet)
	app.Post("/favorites", s.handleFavoritesSave)
	app.Get("/history", s.handleHistoryList)
	app.Delete("/history/:index", s.handleHistoryDelete)
	app.Get("/settings", s.handleSettingsGet)
	app.Post("/settings", s.handleSettingsSave)

	return app
}

func fail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

func ok(c fiber.Ctx, payload fiber.Map) error {
	if payload == nil {
		payload = fiber.Map{}
	}
	payload["success"] = true
	return c.JSON(payload)
}
