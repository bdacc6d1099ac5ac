package trace

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	httperr "github.com/aevon-lab/tracelens/internal/core/errors"
	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/aevon-lab/tracelens/internal/figure"
	"github.com/aevon-lab/tracelens/internal/preset"
	"github.com/gin-gonic/gin"
)

// Cookie names carrying the selection between requests.
const (
	CookieForm        = "traceFormData"
	CookieIDKeys      = "mongoIdData"
	CookieValueKeys   = "mongoValData"
	CookieIDKeyValues = "mongoIdKeyVals"
)

// DefaultCookieMaxAge keeps the selection for 400 days.
const DefaultCookieMaxAge = 400 * 24 * time.Hour

// Handler exposes the Service over HTTP.
type Handler struct {
	svc          *Service
	cookieMaxAge time.Duration
	pngWidth     int
	pngHeight    int
}

// NewHandler creates the HTTP layer of svc.
func NewHandler(svc *Service, cookieMaxAge time.Duration) *Handler {
	if cookieMaxAge <= 0 {
		cookieMaxAge = DefaultCookieMaxAge
	}
	return &Handler{
		svc:          svc,
		cookieMaxAge: cookieMaxAge,
		pngWidth:     figure.DefaultWidth,
		pngHeight:    figure.DefaultHeight,
	}
}

// RegisterRoutes registers the trace and preset routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/trace", h.HandleGetSelection)
	r.POST("/v1/trace", h.HandleFormPost)
	r.POST("/v1/trace/update", h.HandleUpdate)
	r.POST("/v1/trace/plot", h.HandlePlot)
	r.POST("/v1/trace/plot.png", h.HandlePlotPNG)

	r.GET("/v1/presets", h.HandleListPresets)
	r.POST("/v1/presets/:name/plot", h.HandlePlotPreset)
}

// HandleGetSelection handles GET /v1/trace.
func (h *Handler) HandleGetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.selectionFromCookies(c))
}

// HandleFormPost handles POST /v1/trace with the flat form fields and the
// update/plot buttons. Input problems come back as a message with status 200.
func (h *Handler) HandleFormPost(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpMissingInputError,
			Message:   "Invalid form",
			Details:   err.Error(),
		})
		return
	}

	sel := h.selectionFromCookies(c)
	form, action, err := ParseForm(c.Request.PostForm)
	if err != nil {
		c.JSON(http.StatusOK, Result{Selection: sel.WithForm(form), Figures: []figure.Figure{}, Message: err.Error()})
		return
	}
	sel = sel.WithForm(form)

	switch action {
	case ActionUpdate:
		updated, err := h.svc.Update(c.Request.Context(), sel)
		if err != nil {
			h.writeError(c, err, false)
			return
		}
		h.setDiscoveryCookies(c, updated)
		c.JSON(http.StatusOK, Result{Selection: updated, Figures: []figure.Figure{}})

	case ActionPlot:
		res, err := h.svc.Plot(c.Request.Context(), sel)
		if err != nil {
			h.writePlotError(c, sel, err)
			return
		}
		h.setFormCookie(c, form)
		c.JSON(http.StatusOK, res)

	default:
		c.JSON(http.StatusOK, Result{Selection: sel, Figures: []figure.Figure{}})
	}
}

// HandleUpdate handles POST /v1/trace/update with a JSON form.
func (h *Handler) HandleUpdate(c *gin.Context) {
	form, ok := h.bindForm(c)
	if !ok {
		return
	}
	sel, err := h.svc.Update(c.Request.Context(), h.selectionFromCookies(c).WithForm(form))
	if err != nil {
		h.writeError(c, err, true)
		return
	}
	h.setDiscoveryCookies(c, sel)
	c.JSON(http.StatusOK, sel)
}

// HandlePlot handles POST /v1/trace/plot with a JSON form.
func (h *Handler) HandlePlot(c *gin.Context) {
	form, ok := h.bindForm(c)
	if !ok {
		return
	}
	sel := h.selectionFromCookies(c).WithForm(form)
	res, err := h.svc.Plot(c.Request.Context(), sel)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			c.JSON(http.StatusOK, Result{Selection: sel, Figures: []figure.Figure{}, Message: NoDataMessage})
			return
		}
		h.writeError(c, err, true)
		return
	}
	h.setFormCookie(c, form)
	c.JSON(http.StatusOK, res)
}

// HandlePlotPNG handles POST /v1/trace/plot.png?figure=N and renders figure N.
func (h *Handler) HandlePlotPNG(c *gin.Context) {
	index, err := strconv.Atoi(c.DefaultQuery("figure", "0"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpMissingInputError,
			Message:   "figure must be a non-negative integer",
		})
		return
	}

	form, ok := h.bindForm(c)
	if !ok {
		return
	}
	res, err := h.svc.Plot(c.Request.Context(), h.selectionFromCookies(c).WithForm(form))
	if err != nil {
		h.writeError(c, err, true)
		return
	}
	if index >= len(res.Figures) {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpFigureNotFoundError,
			Message:   "No such figure",
			Details:   gin.H{"figure": index, "figures": len(res.Figures), "message": res.Message},
		})
		return
	}

	png, err := figure.RenderPNG(res.Figures[index], h.pngWidth, h.pngHeight)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, figure.ErrNothingToRender) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, httperr.ErrorResponse{
			ErrorType: httperr.HttpRenderError,
			Message:   "Failed to render figure",
			Details:   err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// HandleListPresets handles GET /v1/presets.
func (h *Handler) HandleListPresets(c *gin.Context) {
	presets, err := h.svc.Presets(c.Request.Context())
	if err != nil {
		h.writeError(c, err, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

// HandlePlotPreset handles POST /v1/presets/:name/plot. The optional JSON
// body names the connection; otherwise the cookie form's connection is used.
func (h *Handler) HandlePlotPreset(c *gin.Context) {
	sel := h.selectionFromCookies(c)
	if c.Request.ContentLength > 0 {
		var conn Form
		if err := c.ShouldBindJSON(&conn); err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   "Invalid request body",
				Details:   err.Error(),
			})
			return
		}
		sel.Form.IP, sel.Form.Port, sel.Form.DB = conn.IP, conn.Port, conn.DB
	}

	res, err := h.svc.PlotPreset(c.Request.Context(), c.Param("name"), sel)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			c.JSON(http.StatusOK, Result{Selection: sel, Figures: []figure.Figure{}, Message: NoDataMessage})
			return
		}
		h.writeError(c, err, true)
		return
	}
	h.setFormCookie(c, res.Selection.Form)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) bindForm(c *gin.Context) (Form, bool) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return form, false
	}
	return form, true
}

// writePlotError reports a failed form Plot. Input problems stay on the page
// as a message; the store being down does not.
func (h *Handler) writePlotError(c *gin.Context, sel Selection, err error) {
	switch {
	case errors.Is(err, ErrNoData):
		c.JSON(http.StatusOK, Result{Selection: sel, Figures: []figure.Figure{}, Message: NoDataMessage})
	case errors.Is(err, ErrMissingInput):
		c.JSON(http.StatusOK, Result{Selection: sel, Figures: []figure.Figure{}, Message: err.Error()})
	default:
		h.writeError(c, err, false)
	}
}

func (h *Handler) writeError(c *gin.Context, err error, strict bool) {
	switch {
	case errors.Is(err, storage.ErrUnreachable):
		slog.Warn("[Trace] Store unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpStoreUnreachableError,
			Message:   "Document store unreachable",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrMissingInput):
		status := http.StatusOK
		if strict {
			status = http.StatusBadRequest
		}
		c.JSON(status, httperr.ErrorResponse{
			ErrorType: httperr.HttpMissingInputError,
			Message:   "Missing or invalid input",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrNoData):
		c.JSON(http.StatusOK, httperr.ErrorResponse{
			ErrorType: httperr.HttpNoDataError,
			Message:   NoDataMessage,
		})
	case errors.Is(err, preset.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpPresetNotFoundError,
			Message:   "Preset not found",
			Details:   err.Error(),
		})
	default:
		slog.Error("[Trace] Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query traces",
			Details:   err.Error(),
		})
	}
}

func (h *Handler) selectionFromCookies(c *gin.Context) Selection {
	var sel Selection
	readCookie(c, CookieForm, &sel.Form)
	readCookie(c, CookieIDKeys, &sel.IDKeys)
	readCookie(c, CookieValueKeys, &sel.ValueKeys)
	readCookie(c, CookieIDKeyValues, &sel.IDKeyValues)
	return sel
}

func readCookie(c *gin.Context, name string, into any) {
	raw, err := c.Cookie(name)
	if err != nil || raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), into); err != nil {
		slog.Debug("[Trace] Ignoring unreadable cookie", "cookie", name, "error", err)
	}
}

func (h *Handler) setFormCookie(c *gin.Context, form Form) {
	h.writeCookie(c, CookieForm, form)
}

func (h *Handler) setDiscoveryCookies(c *gin.Context, sel Selection) {
	h.writeCookie(c, CookieIDKeys, sel.IDKeys)
	h.writeCookie(c, CookieValueKeys, sel.ValueKeys)
	h.writeCookie(c, CookieIDKeyValues, sel.IDKeyValues)
}

func (h *Handler) writeCookie(c *gin.Context, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("[Trace] Failed to encode cookie", "cookie", name, "error", err)
		return
	}
	c.SetCookie(name, string(data), int(h.cookieMaxAge.Seconds()), "/", "", false, true)
}
