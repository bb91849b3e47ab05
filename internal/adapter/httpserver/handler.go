package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nasmon/nasmon-agent/internal/assets"
	"github.com/nasmon/nasmon-agent/internal/domain"
)

// Snapshotter produces one full telemetry snapshot per call.
type Snapshotter interface {
	Collect() domain.SystemSnapshot
}

type API struct {
	collector Snapshotter
	imageDir  string
	logger    *slog.Logger
}

func NewAPI(collector Snapshotter, imageDir string, logger *slog.Logger) *API {
	return &API{collector: collector, imageDir: imageDir, logger: logger}
}

func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/system-info", a.systemInfo)
	router.GET("/image-files", a.imageFiles)
}

// systemInfo runs a full aggregation per request. There is no caching,
// so the response takes at least the network sampling window. Collector
// failures surface as default field values, never as an HTTP error.
func (a *API) systemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, a.collector.Collect())
}

func (a *API) imageFiles(c *gin.Context) {
	listing := assets.ListImages(a.imageDir)
	if listing.Error != "" {
		a.logger.Warn("image directory scan failed", "dir", a.imageDir, "err", listing.Error)
	}
	c.JSON(http.StatusOK, listing)
}
