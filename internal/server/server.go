// Package server exposes a posing Studio over HTTP and streams its frames
// to websocket clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/library"
)

// DefaultTick is the frame interval used when Options.Tick is zero.
const DefaultTick = 16 * time.Millisecond

// Options configures a Server.
type Options struct {
	// Library enables the /api/library and /api/sequences routes. Nil
	// disables them.
	Library *library.Store
	Tick    time.Duration
	Logger  *slog.Logger
}

// Server drives one Studio on a fixed tick and serves it over HTTP.
type Server struct {
	app *fiber.App
	hub *Hub
	lib *library.Store
	log *slog.Logger

	mu      sync.Mutex
	studio  *poser.Studio
	last    poser.Frame
	tick    time.Duration
	started time.Time
	clock   func() time.Duration
}

// New creates a server around studio.
func New(studio *poser.Studio, opts Options) *Server {
	s := &Server{
		studio:  studio,
		lib:     opts.Library,
		log:     opts.Logger,
		tick:    opts.Tick,
		started: time.Now(),
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.tick <= 0 {
		s.tick = DefaultTick
	}
	s.clock = func() time.Duration { return time.Since(s.started) }
	s.hub = NewHub(s.log)
	s.last = studio.Update(0)

	app := fiber.New(fiber.Config{
		AppName:               "poser",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/frame", s.handleFrame)
	api.Get("/pose", s.handleGetPose)
	api.Put("/pose", s.handlePutPose)
	api.Get("/pose/code", s.handleGetCode)
	api.Put("/pose/code", s.handlePutCode)
	api.Put("/joints/:joint", s.handleSetJoint)
	api.Post("/calibrate", s.handleCalibrate)
	api.Post("/drag/begin", s.handleDragBegin)
	api.Post("/drag/move", s.handleDragMove)
	api.Post("/drag/end", s.handleDragEnd)
	api.Post("/transition", s.handleTransition)
	api.Post("/pins/:joint", s.handlePin)
	api.Delete("/pins/:joint", s.handleUnpin)
	api.Get("/commands", s.handleListCommands)
	api.Post("/commands/:name", s.handleCommand)
	api.Get("/keyframes", s.handleListKeyframes)
	api.Post("/keyframes", s.handleCaptureKeyframe)
	api.Delete("/keyframes/:id", s.handleDeleteKeyframe)
	api.Post("/timeline/play", s.handlePlayTimeline)
	api.Post("/timeline/stop", s.handleStopTimeline)
	api.Put("/settings", s.handleSettings)

	// Stateless math; these never touch the studio.
	api.Post("/evaluate", s.handleEvaluate)
	api.Post("/propagate", s.handlePropagate)
	api.Post("/solve", s.handleSolve)

	lib := api.Group("/library", s.requireLibrary)
	lib.Get("/", s.handleLibraryList)
	lib.Get("/:name", s.handleLibraryGet)
	lib.Put("/:name", s.handleLibrarySave)
	lib.Post("/:name/load", s.handleLibraryLoad)
	lib.Delete("/:name", s.handleLibraryDelete)

	seq := api.Group("/sequences", s.requireLibrary)
	seq.Get("/", s.handleSequenceList)
	seq.Get("/:name", s.handleSequenceGet)
	seq.Put("/:name", s.handleSequenceSave)
	seq.Post("/:name/load", s.handleSequenceLoad)
	seq.Delete("/:name", s.handleSequenceDelete)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// WithStudio runs fn while holding the studio lock.
func (s *Server) WithStudio(fn func(*poser.Studio) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.studio)
}

// Step advances the studio one frame and broadcasts it.
func (s *Server) Step() poser.Frame {
	s.mu.Lock()
	f := s.studio.Update(s.clock())
	s.last = f
	s.mu.Unlock()

	if s.hub.ClientCount() > 0 {
		if err := s.hub.BroadcastJSON(f); err != nil {
			s.log.Error("encode frame", "err", err)
		}
	}
	return f
}

// Run serves on addr and ticks the studio until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener. The tick loop stops when Serve
// returns, including when the listener fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run()
	defer s.hub.Stop()

	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Step()
			}
		}
	}()

	errc := make(chan error, 1)
	go func() { errc <- s.app.Listener(ln) }()
	s.log.Info("serving", "addr", ln.Addr().String(), "tick", s.tick)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// ListenAddr formats a port as a listen address.
func ListenAddr(port int) string { return ":" + strconv.Itoa(port) }

// handleError maps domain errors onto status codes.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, poser.ErrUnknownJoint),
		errors.Is(err, poser.ErrUnknownPart),
		errors.Is(err, poser.ErrUnknownCommand),
		errors.Is(err, library.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, poser.ErrNotCalibrated),
		errors.Is(err, poser.ErrNoDrag),
		errors.Is(err, poser.ErrNoKeyframes):
		code = fiber.StatusConflict
	case errors.Is(err, poser.ErrNotPinnable),
		errors.Is(err, poser.ErrNonFinite),
		errors.Is(err, poser.ErrMalformedPose),
		errors.Is(err, library.ErrEmptyName):
		code = fiber.StatusBadRequest
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) requireLibrary(c *fiber.Ctx) error {
	if s.lib == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "pose library not configured")
	}
	return c.Next()
}
