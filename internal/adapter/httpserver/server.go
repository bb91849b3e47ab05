package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Server struct {
	http *http.Server
}

// NewServer builds the metrics API server. Timeouts are generous on the
// write side because /system-info blocks for the sampling window before
// it can respond.
func NewServer(host string, port int, api *API, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(corsMiddleware())
	router.Use(requestLogger(logger))
	api.RegisterRoutes(router)

	s := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{http: s}
}

// NewStaticServer serves a file tree. The launcher runs this as its
// second child on the fixed frontend port.
func NewStaticServer(port int, dir string, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger(logger))
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(dir))))

	s := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{http: s}
}

func (s *Server) Run() error {
	return s.http.ListenAndServe()
}
