package api

import (
	"context"
	"errors"
	"time"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	pkgerrors "github.com/6amape9I/parallel--funetun/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func getTaskEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(taskReq)
		if !ok {
			return taskRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return taskRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		task, err := svc.ReportTaskRequest(ctx, req.Trainer, req.JobID)
		if err != nil {
			return taskRes{}, err
		}

		return taskRes{Task: task}, nil
	}
}

func submitUpdateEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(updateReq)
		if !ok {
			return updateRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return updateRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.ReportUpdate(ctx, req.UpdateReport)
		if err != nil {
			return updateRes{}, err
		}

		return updateRes{UpdateResult: res}, nil
	}
}

func submitValidationEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(validationReq)
		if !ok {
			return validationRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return validationRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		ack, err := svc.ReportValidation(ctx, req.ValidationReport)
		if err != nil {
			return validationRes{}, err
		}

		return validationRes{ValidationAck: ack}, nil
	}
}

func statusEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		status, err := svc.Status(ctx)
		if err != nil {
			return statusRes{}, err
		}

		return statusRes{Status: status}, nil
	}
}

func graphEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		view, err := svc.Graph(ctx)
		if err != nil {
			return graphRes{}, err
		}

		return graphRes{GraphView: view}, nil
	}
}

func startSimulationEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		state, err := svc.StartSimulation(ctx)
		if err != nil && !errors.Is(err, orchestrator.ErrAlreadyRunning) {
			return simulationRes{}, err
		}

		return simulationRes{SimulationState: state}, nil
	}
}

func stopSimulationEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		state, err := svc.StopSimulation(ctx)
		if err != nil {
			return simulationRes{}, err
		}

		return simulationRes{SimulationState: state}, nil
	}
}

func stepSimulationEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		res, err := svc.StepSimulation(ctx)
		if err != nil {
			return stepRes{}, err
		}

		return stepRes{StepResult: res}, nil
	}
}

func resetEndpoint(svc orchestrator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if err := svc.Reset(ctx); err != nil {
			return resetRes{}, err
		}

		return resetRes{Status: "reset", Timestamp: time.Now().UTC()}, nil
	}
}
