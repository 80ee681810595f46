package api

import (
	"errors"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"github.com/6amape9I/parallel--funetun/pkg/chain"
)

var (
	errInvalidTrainer   = errors.New("invalid trainer address")
	errInvalidValidator = errors.New("invalid validator address")
	errMissingHash      = errors.New("missing update hash")
)

type taskReq struct {
	Trainer string `json:"trainer"`
	JobID   uint64 `json:"job_id"`
}

func (req *taskReq) validate() error {
	if !chain.IsAddress(req.Trainer) {
		return errInvalidTrainer
	}

	return nil
}

type updateReq struct {
	orchestrator.UpdateReport
}

func (req *updateReq) validate() error {
	if !chain.IsAddress(req.Trainer) {
		return errInvalidTrainer
	}
	if req.UpdateHash == "" {
		return errMissingHash
	}

	return nil
}

type validationReq struct {
	orchestrator.ValidationReport
}

func (req *validationReq) validate() error {
	if !chain.IsAddress(req.Validator) {
		return errInvalidValidator
	}

	return nil
}
