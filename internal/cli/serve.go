package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/zonealloc/pkg/buildinfo"
	"github.com/matzehuels/zonealloc/pkg/compat"
	"github.com/matzehuels/zonealloc/pkg/errors"
	"github.com/matzehuels/zonealloc/pkg/render"
	"github.com/matzehuels/zonealloc/pkg/zone"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 5 * time.Second
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr   string
	width  float64
	height float64
	tier   string
}

// serveCommand exposes one allocator over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:   defaultAddr,
		width:  defaultWidth,
		height: defaultHeight,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an allocator over HTTP",
		Long: `Serve runs a single allocator on the system clock and exposes it as a JSON API:

  GET  /healthz                   liveness
  GET  /snapshot                  full partition and distribution
  GET  /snapshot.svg              SVG heatmap of the partition
  GET  /regions                   regions in topology order
  GET  /regions/{id}              one region ({id} escaped, e.g. p1%2Fcenter)
  GET  /distribution              density statistics
  GET  /stats                     counters and recent kinds
  GET  /history                   recent placements
  POST /place?strategy=           select, record and return a placement point
  POST /select?strategy=          select without recording
  POST /regions/{id}/usage        record a placement in a region
  POST /regions/{id}/release      release one occupant
  POST /rebalance                 rebalance now
  PUT  /viewport                  {"width":..,"height":..}; ?immediate=true skips the debounce`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "initial surface width")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "initial surface height")
	cmd.Flags().StringVar(&opts.tier, "tier", "", "device tier: low, medium, high or auto (overrides config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	tel, err := setupTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.close(closeCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	s, err := cfg.newSession(zone.NewViewport(opts.width, opts.height), opts.tier, logger, tel.hooks)
	if err != nil {
		return err
	}
	defer s.alloc.Destroy()

	httpServer := &http.Server{
		Addr:              opts.addr,
		Handler:           newRouter(s, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return listenAndServe(ctx, httpServer, logger)
}

// listenAndServe runs srv until ctx is done, then shuts it down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	serveErr := make(chan error, 1)
	logger.Info("listening", append([]any{"addr", srv.Addr}, buildinfo.Get().KeyVals()...)...)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := srv.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("server stopped")
		return nil
	case err := <-serveErr:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// =============================================================================
// Handlers
// =============================================================================

type api struct {
	alloc  *zone.Allocator
	compat *compat.Provider
	logger *log.Logger
}

// newRouter builds the HTTP API over the session's allocator.
func newRouter(s *session, logger *log.Logger) http.Handler {
	a := &api{alloc: s.alloc, compat: s.compat, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/healthz", a.healthz)
	r.Group(func(r chi.Router) {
		r.Use(a.requireLive)
		r.Get("/snapshot", a.snapshot)
		r.Get("/snapshot.svg", a.snapshotSVG)
		r.Get("/regions", a.regions)
		r.Get("/regions/{id}", a.region)
		r.Get("/distribution", a.distribution)
		r.Get("/stats", a.stats)
		r.Get("/history", a.history)
		r.Post("/place", a.place)
		r.Post("/select", a.selectRegion)
		r.Post("/regions/{id}/usage", a.recordUsage)
		r.Post("/regions/{id}/release", a.release)
		r.Post("/rebalance", a.rebalance)
		r.Put("/viewport", a.viewport)
	})
	return r
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// requireLive rejects requests once the allocator has been destroyed.
func (a *api) requireLive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.alloc.Destroyed() {
			writeJSONError(w, errors.New(errors.ErrCodeDestroyed, "allocator is shut down"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// regionResponse is the wire form of a region.
type regionResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Kind            zone.Kind `json:"kind"`
	X               float64   `json:"x"`
	Y               float64   `json:"y"`
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	Weight          float64   `json:"weight"`
	ActiveOccupants int       `json:"active_occupants"`
	TotalUsage      int       `json:"total_usage"`
	Density         float64   `json:"density"`
}

func toRegionResponse(r zone.Region) regionResponse {
	return regionResponse{
		ID:              r.ID,
		Name:            r.Name,
		Kind:            r.Kind,
		X:               r.Bounds.MinX,
		Y:               r.Bounds.MinY,
		Width:           r.Bounds.Width(),
		Height:          r.Bounds.Height(),
		Weight:          r.Weight,
		ActiveOccupants: r.ActiveOccupants,
		TotalUsage:      r.TotalUsageCount,
		Density:         r.Density(),
	}
}

type placeResponse struct {
	Region regionResponse `json:"region"`
	Point  *zone.Point    `json:"point,omitempty"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type viewportResponse struct {
	Viewport     zone.Viewport `json:"viewport"`
	Recalculated bool          `json:"recalculated"`
	Pending      bool          `json:"pending"`
}

func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Build: buildinfo.Get()}
	if a.alloc.Destroyed() {
		resp.Status = "destroyed"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) snapshot(w http.ResponseWriter, r *http.Request) {
	data, err := render.RenderJSON(render.SnapshotOf(a.alloc))
	if err != nil {
		writeJSONError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (a *api) snapshotSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(render.RenderSVG(render.SnapshotOf(a.alloc), render.WithHeatmap(), render.WithLabels()))
}

func (a *api) regions(w http.ResponseWriter, r *http.Request) {
	regions := a.alloc.Regions()
	out := make([]regionResponse, len(regions))
	for i, reg := range regions {
		out[i] = toRegionResponse(reg)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) region(w http.ResponseWriter, r *http.Request) {
	id := regionID(r)
	reg, ok := a.alloc.Region(id)
	if !ok {
		writeJSONError(w, errors.New(errors.ErrCodeNotFound, "region %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, toRegionResponse(reg))
}

func (a *api) distribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.alloc.Distribution())
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.alloc.Stats())
}

func (a *api) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.alloc.History())
}

func (a *api) place(w http.ResponseWriter, r *http.Request) {
	strategy, err := strategyParam(r)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	reg, pt, ok := a.alloc.Place(strategy...)
	if !ok {
		writeJSONError(w, errors.New(errors.ErrCodeDestroyed, "allocator is shut down"))
		return
	}
	writeJSON(w, http.StatusOK, placeResponse{Region: toRegionResponse(reg), Point: &pt})
}

func (a *api) selectRegion(w http.ResponseWriter, r *http.Request) {
	strategy, err := strategyParam(r)
	if err != nil {
		writeJSONError(w, err)
		return
	}
	reg, ok := a.alloc.SelectRegion(strategy...)
	if !ok {
		writeJSONError(w, errors.New(errors.ErrCodeDestroyed, "allocator is shut down"))
		return
	}
	writeJSON(w, http.StatusOK, placeResponse{Region: toRegionResponse(reg)})
}

func (a *api) recordUsage(w http.ResponseWriter, r *http.Request) {
	id := regionID(r)
	if !a.alloc.RecordUsage(id) {
		writeJSONError(w, errors.New(errors.ErrCodeNotFound, "region %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) release(w http.ResponseWriter, r *http.Request) {
	id := regionID(r)
	if !a.alloc.Release(id) {
		writeJSONError(w, errors.New(errors.ErrCodeNotFound, "region %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) rebalance(w http.ResponseWriter, r *http.Request) {
	a.alloc.TriggerRebalancing()
	writeJSON(w, http.StatusAccepted, a.alloc.Distribution())
}

func (a *api) viewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode viewport"))
		return
	}
	if err := errors.ValidateDimension("width", req.Width); err != nil {
		writeJSONError(w, err)
		return
	}
	if err := errors.ValidateDimension("height", req.Height); err != nil {
		writeJSONError(w, err)
		return
	}

	if r.URL.Query().Get("immediate") == "true" {
		v := zone.NewViewport(req.Width, req.Height)
		changed := a.alloc.HandleViewportChange(v)
		writeJSON(w, http.StatusOK, viewportResponse{Viewport: v, Recalculated: changed})
		return
	}
	v := a.compat.Publish(req.Width, req.Height)
	writeJSON(w, http.StatusAccepted, viewportResponse{Viewport: v, Pending: true})
}

// regionID returns the unescaped {id} parameter. Region IDs contain a slash
// ("p3/center"), so clients send it escaped as %2F.
func regionID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func strategyParam(r *http.Request) ([]zone.Strategy, error) {
	name := r.URL.Query().Get("strategy")
	if name == "" {
		return nil, nil
	}
	s, err := zone.ParseStrategy(name)
	if err != nil {
		return nil, err
	}
	return []zone.Strategy{s}, nil
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

// writeJSONError maps err's code to an HTTP status.
func writeJSONError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, httpStatus(code), errorResponse{Error: errors.UserMessage(err), Code: code})
}

func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDestroyed:
		return http.StatusServiceUnavailable
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidStrategy, errors.ErrCodeInvalidViewport,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidTier:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
