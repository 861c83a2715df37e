// internal/server/handlers.go - HTTP handlers
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/boundary"
	"github.com/valpere/boundary_staticmap/internal/logger"
	"github.com/valpere/boundary_staticmap/internal/output"
	"github.com/valpere/boundary_staticmap/internal/render"
	"github.com/valpere/boundary_staticmap/internal/service"
	"github.com/valpere/boundary_staticmap/internal/staticmap"
	"github.com/valpere/boundary_staticmap/pkg/geo"
)

type errorBody struct {
	Error          string `json:"error"`
	Code           string `json:"code,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStyles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.renderer.Styles())
}

// GET /v1/maps/{areaType}/{code}.png
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	code, ok := strings.CutSuffix(chi.URLParam(r, "code"), ".png")
	if !ok {
		s.writeError(w, r, internal.NewError(internal.ErrorCodeNotFound, "only .png images are served", nil))
		return
	}

	req, size, err := s.parseAreaRequest(r, chi.URLParam(r, "areaType"), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.renderer.RenderArea(r.Context(), req, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeImage(w, res)
}

// GET /v1/maps/{areaType}/{code}/plan
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	req, size, err := s.parseAreaRequest(r, chi.URLParam(r, "areaType"), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	plan, err := s.renderer.PlanArea(r.Context(), req, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := output.NewPlanView(req.String(), plan, true)
	if cast.ToBool(r.URL.Query().Get("decode")) {
		if err := view.Decode(); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /v1/maps/render?area_type=&width=&height= with a GeoJSON body
func (s *Server) handleRenderFeature(w http.ResponseWriter, r *http.Request) {
	areaType, err := internal.ParseAreaType(valueOr(r.URL.Query().Get("area_type"), string(internal.AreaProvince)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	size, err := s.parseSize(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var reader io.Reader = r.Body
	if s.config.MaxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
			return
		}
		s.writeError(w, r, internal.NewError(internal.ErrorCodeValidation, "failed to read request body", err))
		return
	}

	f, err := boundary.DecodeFeature(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := logger.WithArea(r.Context(), areaType.String()+"/inline")
	res, err := s.renderer.RenderFeature(ctx, f, areaType, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeImage(w, res)
}

func (s *Server) parseAreaRequest(r *http.Request, areaType, code string) (boundary.Request, staticmap.Size, error) {
	req, err := boundary.NewRequest(areaType, code)
	if err != nil {
		return boundary.Request{}, staticmap.Size{}, err
	}

	size, err := s.parseSize(r)
	if err != nil {
		return boundary.Request{}, staticmap.Size{}, err
	}
	return req, size, nil
}

// parseSize reads width and height from the query, falling back to the default size
func (s *Server) parseSize(r *http.Request) (staticmap.Size, error) {
	size := s.defaultSize
	q := r.URL.Query()

	for _, dim := range []struct {
		name string
		dst  *int
	}{
		{"width", &size.Width},
		{"height", &size.Height},
	} {
		raw := q.Get(dim.name)
		if raw == "" {
			continue
		}
		v, err := cast.ToIntE(raw)
		if err != nil {
			return size, internal.NewError(internal.ErrorCodeValidation, fmt.Sprintf("invalid %s %q", dim.name, raw), err)
		}
		*dim.dst = v
	}

	if err := size.Validate(); err != nil {
		return size, internal.NewError(internal.ErrorCodeValidation, "invalid image size", err)
	}
	if size.Width > staticmap.MaxDimension || size.Height > staticmap.MaxDimension {
		return size, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("image size %s exceeds %dpx", size, staticmap.MaxDimension), nil)
	}
	return size, nil
}

// statusOf maps pipeline errors to HTTP status codes
func statusOf(err error) int {
	var upstream *render.UpstreamError
	var configErr *staticmap.ConfigurationError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &configErr), errors.Is(err, service.ErrNoSource):
		return http.StatusInternalServerError
	case errors.Is(err, geo.ErrEmptyGeometry), errors.Is(err, staticmap.ErrInvalidSize):
		return http.StatusUnprocessableEntity
	}

	switch internal.CodeOf(err) {
	case internal.ErrorCodeNotFound:
		return http.StatusNotFound
	case internal.ErrorCodeValidation, internal.ErrorCodeGeometry:
		return http.StatusUnprocessableEntity
	case internal.ErrorCodeNetwork, internal.ErrorCodeUpstream:
		return http.StatusBadGateway
	case internal.ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error(), Code: internal.CodeOf(err)}

	var upstream *render.UpstreamError
	if errors.As(err, &upstream) {
		body.UpstreamStatus = upstream.StatusCode
	}

	log := logger.FromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	writeJSON(w, status, body)
}

func writeImage(w http.ResponseWriter, res *service.Result) {
	cacheStatus := "MISS"
	if res.Cached {
		cacheStatus = "HIT"
	}

	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set("Content-Length", strconv.Itoa(len(res.Image)))
	h.Set("Cache-Control", "public, max-age=86400")
	h.Set("X-Cache", cacheStatus)
	h.Set("X-Map-Stage", res.Plan.Stage.String())
	h.Set("X-Map-URL-Length", strconv.Itoa(res.Plan.URLLength()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Image)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
