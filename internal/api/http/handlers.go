package http

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/molx/internal/api/ws"
	"github.com/GriffinCanCode/molx/internal/domain/app"
	"github.com/GriffinCanCode/molx/internal/domain/intake"
	"github.com/GriffinCanCode/molx/internal/domain/session"
	"github.com/GriffinCanCode/molx/internal/engine/scene"
	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/infrastructure/storage"
	"github.com/GriffinCanCode/molx/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/molx/internal/shared/types"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Deps are the components the handlers serve
type Deps struct {
	App       *app.Manager
	Sessions  *session.Manager
	Engines   *scene.Factory
	Store     storage.Store
	Hub       *ws.Hub
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
	Logger    *zap.Logger
	MaxUpload int64
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Deps
	started time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handlers{Deps: deps, started: time.Now()}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/files", h.UploadFile)
	r.GET("/files/current", h.CurrentFile)
	r.DELETE("/files/current", h.RemoveFile)

	r.POST("/viewer/open", h.OpenViewer)
	r.POST("/viewer/close", h.CloseViewer)
	r.GET("/viewer", h.ViewerStatus)
	r.POST("/viewer/events", h.ViewerEvent)
	r.POST("/viewer/save", h.SaveView)
	r.POST("/viewer/reset", h.ResetView)
	r.GET("/viewer/snapshot", h.PersistedSnapshot)

	if h.Hub != nil {
		r.GET("/stream", h.Hub.HandleConnection)
	}
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "molx",
		"version": Version,
	})
}

// Health reports component state
func (h *Handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()
	st := h.App.State(ctx)

	components := gin.H{
		"viewer": gin.H{
			"state":       st.Viewer.State,
			"show_viewer": st.ShowViewer,
			"has_file":    st.File != nil,
		},
		"uptime_seconds": time.Since(h.started).Seconds(),
	}
	if h.Sessions != nil {
		components["session"] = h.Sessions.Stats()
	}
	if h.Engines != nil {
		components["engines"] = h.Engines.Stats()
	}
	if h.Store != nil {
		store := gin.H{"driver": h.Store.Driver()}
		if b, ok := storage.Breaker(h.Store); ok {
			store["breaker"] = b.Stats()
		}
		components["storage"] = store
	}
	if h.Hub != nil {
		components["stream_clients"] = h.Hub.Clients()
	}
	if h.Metrics != nil {
		components["metrics"] = h.Metrics.GetSnapshot()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"components": components,
	})
}

// UploadFile accepts a multipart "file" field
func (h *Handlers) UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}

	candidate := &intake.Candidate{Name: header.Filename, Size: header.Size}
	if h.MaxUpload <= 0 || header.Size <= h.MaxUpload {
		data, err := readUpload(header.Open, h.MaxUpload)
		if err != nil {
			h.Logger.Warn("Failed to read upload", zap.String("name", header.Filename), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
			return
		}
		candidate.Data = data
		candidate.Size = int64(len(data))
	}

	var file *intake.UploadedFile
	err = h.trace(c, "files.upload", func(ctx context.Context) error {
		var err error
		file, err = h.App.HandleFile(ctx, candidate)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"file":  file,
		"state": h.App.State(c.Request.Context()),
	})
}

// CurrentFile returns the accepted file
func (h *Handlers) CurrentFile(c *gin.Context) {
	file, ok := h.App.File()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no file accepted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": file})
}

// RemoveFile clears the accepted file and closes the viewer
func (h *Handlers) RemoveFile(c *gin.Context) {
	h.App.RemoveFile(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": h.App.State(c.Request.Context())})
}

// OpenViewer opens the viewer for the accepted file
func (h *Handlers) OpenViewer(c *gin.Context) {
	var req types.OpenViewerRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	err := h.trace(c, "viewer.open", func(ctx context.Context) error {
		_, err := h.App.OpenViewer(ctx, req.ViewID)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"viewer": h.App.State(c.Request.Context()).Viewer})
}

// CloseViewer disposes the viewer engine
func (h *Handlers) CloseViewer(c *gin.Context) {
	h.App.CloseViewer(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"state": h.App.State(c.Request.Context())})
}

// ViewerStatus returns the application state including viewer flags
func (h *Handlers) ViewerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.App.State(c.Request.Context()))
}

// ViewerEvent forwards a client-observed change into the engine
func (h *Handlers) ViewerEvent(c *gin.Context) {
	var req types.ChangeEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.trace(c, "viewer.event", func(ctx context.Context) error {
		return h.App.Dispatch(ctx, req.Kind, req.Ref)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"flags": h.App.State(c.Request.Context()).Viewer.Flags})
}

// SaveView persists the current view
func (h *Handlers) SaveView(c *gin.Context) {
	var notes []types.Notification
	err := h.trace(c, "viewer.save", func(ctx context.Context) error {
		var err error
		notes, err = h.App.Save(ctx)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notes,
		"flags":         h.App.State(c.Request.Context()).Viewer.Flags,
	})
}

// ResetView deletes the persisted session and reloads the view
func (h *Handlers) ResetView(c *gin.Context) {
	var notes []types.Notification
	err := h.trace(c, "viewer.reset", func(ctx context.Context) error {
		var err error
		notes, err = h.App.Reset(ctx)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notes,
		"flags":         h.App.State(c.Request.Context()).Viewer.Flags,
	})
}

// PersistedSnapshot returns the stored session record as is
func (h *Handlers) PersistedSnapshot(c *gin.Context) {
	snap, ok := h.Sessions.Load(c.Request.Context())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no saved session"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", snap)
}

func (h *Handlers) trace(c *gin.Context, name string, fn func(context.Context) error) error {
	if h.Tracer == nil {
		return fn(c.Request.Context())
	}
	return h.Tracer.Trace(c.Request.Context(), name, fn)
}

// readUpload reads at most limit+1 bytes so an undeclared oversize body is
// still detected by intake.
func readUpload(open func() (multipart.File, error), limit int64) ([]byte, error) {
	f, err := open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
