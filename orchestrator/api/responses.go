package api

import (
	"net/http"
	"time"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*taskRes)(nil)
	_ supermq.Response = (*updateRes)(nil)
	_ supermq.Response = (*validationRes)(nil)
	_ supermq.Response = (*statusRes)(nil)
	_ supermq.Response = (*graphRes)(nil)
	_ supermq.Response = (*simulationRes)(nil)
	_ supermq.Response = (*stepRes)(nil)
	_ supermq.Response = (*resetRes)(nil)
)

type okRes struct{}

func (okRes) Code() int {
	return http.StatusOK
}

func (okRes) Headers() map[string]string {
	return map[string]string{}
}

func (okRes) Empty() bool {
	return false
}

type taskRes struct {
	okRes
	orchestrator.Task
}

type updateRes struct {
	okRes
	orchestrator.UpdateResult
}

type validationRes struct {
	okRes
	orchestrator.ValidationAck
}

type statusRes struct {
	okRes
	orchestrator.Status
}

type graphRes struct {
	okRes
	orchestrator.GraphView
}

type simulationRes struct {
	okRes
	orchestrator.SimulationState
}

type stepRes struct {
	okRes
	orchestrator.StepResult
}

type resetRes struct {
	okRes
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
