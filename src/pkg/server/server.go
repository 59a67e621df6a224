// Package server exposes batch labeling over HTTP with Echo.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	echomw "mrz-labeler/src/pkg/echo-middleware"
	"mrz-labeler/src/pkg/notify"
	"mrz-labeler/src/pkg/pipeline"
	"mrz-labeler/src/pkg/report"
)

type Server struct {
	DataRoot     string
	Orchestrator *pipeline.Orchestrator
	Builder      *report.Builder
	Notify       notify.Config
	Cfg          Config

	// BaseContext bounds batch work. Client disconnects do not cancel a
	// running batch; process shutdown does.
	BaseContext context.Context

	mu        sync.Mutex
	exporting map[string]bool
}

func New(ctx context.Context, dataRoot string, orchestrator *pipeline.Orchestrator, builder *report.Builder, notifyCfg notify.Config, cfg Config) *Server {
	return &Server{
		DataRoot:     dataRoot,
		Orchestrator: orchestrator,
		Builder:      builder,
		Notify:       notifyCfg,
		Cfg:          cfg,
		BaseContext:  ctx,
		exporting:    map[string]bool{},
	}
}

/*
Register mounts the middlewares and routes on e.

	GET    /                                   health
	POST   /api/upload-images                  multipart "files"
	POST   /api/upload-image                   multipart "file"
	POST   /api/batches/:batch/export          zip of the quarantine folder
	GET    /api/batches/:batch/files           uploads and label files
	GET    /api/batches/:batch/files/:filename
	PUT    /api/batches/:batch/files/:filename
	DELETE /api/batches/:batch/files/:filename
*/
func (s *Server) Register(e *echo.Echo, mw echomw.Config) {
	echomw.UpdateRateLimits(mw.MiddlewareRateLimit, mw.MiddlewareBurst)

	e.Use(middleware.Recover())
	e.Use(echomw.RouteAccessLoggerMiddleware)
	e.Use(echomw.RateLimiterMiddleware)
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", s.Cfg.MaxUploadMB)))

	e.GET("/", s.health)

	api := e.Group("/api")
	if mw.RequireAuth {
		api.Use(echomw.RequireBearerToken(mw.BearerToken()))
	}

	var jsonRoute []echo.MiddlewareFunc
	if mw.CompressResponses {
		jsonRoute = append(jsonRoute, echomw.CompressResponses)
	}

	api.POST("/upload-images", s.uploadImages, jsonRoute...)
	api.POST("/upload-image", s.uploadImage, jsonRoute...)
	api.POST("/batches/:batch/export", s.export)
	api.GET("/batches/:batch/files", s.listFiles, jsonRoute...)
	api.GET("/batches/:batch/files/:filename", s.getFile)
	api.PUT("/batches/:batch/files/:filename", s.putFile, jsonRoute...)
	api.DELETE("/batches/:batch/files/:filename", s.deleteFile, jsonRoute...)

	tl.Log(tl.Info1, palette.Green, "Registered routes, auth '%t', compression '%t'", mw.RequireAuth, mw.CompressResponses)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) context() context.Context {
	if s.BaseContext == nil {
		return context.Background()
	}
	return s.BaseContext
}

// lockExport marks a batch as exporting; false if it already is.
func (s *Server) lockExport(batchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exporting == nil {
		s.exporting = map[string]bool{}
	}
	if s.exporting[batchID] {
		return false
	}
	s.exporting[batchID] = true
	return true
}

func (s *Server) unlockExport(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exporting, batchID)
}
