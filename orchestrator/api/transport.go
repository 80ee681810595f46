package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"github.com/6amape9I/parallel--funetun/pkg/api"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "orchestrator"

func MakeHandler(svc orchestrator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Get("/status", otelhttp.NewHandler(kithttp.NewServer(
		statusEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "status").ServeHTTP)
	mux.Get("/graph", otelhttp.NewHandler(kithttp.NewServer(
		graphEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "graph").ServeHTTP)

	mux.Route("/simulation", func(r chi.Router) {
		r.Post("/start", otelhttp.NewHandler(kithttp.NewServer(
			startSimulationEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "start-simulation").ServeHTTP)
		r.Post("/stop", otelhttp.NewHandler(kithttp.NewServer(
			stopSimulationEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "stop-simulation").ServeHTTP)
		r.Post("/step", otelhttp.NewHandler(kithttp.NewServer(
			stepSimulationEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "step-simulation").ServeHTTP)
	})

	mux.Post("/get_task", otelhttp.NewHandler(kithttp.NewServer(
		getTaskEndpoint(svc),
		decodeTaskReq,
		api.EncodeResponse,
		opts...,
	), "get-task").ServeHTTP)
	mux.Post("/submit_update", otelhttp.NewHandler(kithttp.NewServer(
		submitUpdateEndpoint(svc),
		decodeUpdateReq,
		api.EncodeResponse,
		opts...,
	), "submit-update").ServeHTTP)
	mux.Post("/submit_update_cbor", otelhttp.NewHandler(kithttp.NewServer(
		submitUpdateEndpoint(svc),
		decodeUpdateCBORReq,
		api.EncodeResponse,
		opts...,
	), "submit-update-cbor").ServeHTTP)
	mux.Post("/submit_validation", otelhttp.NewHandler(kithttp.NewServer(
		submitValidationEndpoint(svc),
		decodeValidationReq,
		api.EncodeResponse,
		opts...,
	), "submit-validation").ServeHTTP)

	reset := otelhttp.NewHandler(kithttp.NewServer(
		resetEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "reset-graph").ServeHTTP
	mux.Get("/debug/graph/reset", reset)
	mux.Post("/debug/graph/reset", reset)

	mux.Get("/health", supermq.Health(serviceName, instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func decodeJSON(r *http.Request, v any) error {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(err, apiutil.ErrValidation)
	}

	return nil
}

func decodeTaskReq(_ context.Context, r *http.Request) (any, error) {
	var req taskReq
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeUpdateReq(_ context.Context, r *http.Request) (any, error) {
	var req updateReq
	if err := decodeJSON(r, &req.UpdateReport); err != nil {
		return nil, err
	}

	return req, nil
}

func decodeUpdateCBORReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.CBORContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req updateReq
	if err := cbor.NewDecoder(r.Body).Decode(&req.UpdateReport); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeValidationReq(_ context.Context, r *http.Request) (any, error) {
	var req validationReq
	if err := decodeJSON(r, &req.ValidationReport); err != nil {
		return nil, err
	}

	return req, nil
}
