package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/6amape9I/parallel--funetun/pkg/chain"
)

const (
	reportsTopicTemplate = "m/%s/c/%s/reports"
	epochsTopicTemplate  = "m/%s/c/%s/orchestrator/epochs"

	taskReportSuffix       = "/task"
	updateReportSuffix     = "/update"
	validationReportSuffix = "/validation"
)

var (
	errInvalidAddress    = errors.New("invalid address")
	errMissingUpdateHash = errors.New("missing update hash")
)

type taskReport struct {
	Trainer string `json:"trainer"`
	JobID   uint64 `json:"job_id"`
}

func (svc *service) reportsTopic() string {
	return fmt.Sprintf(reportsTopicTemplate, svc.cfg.DomainID, svc.cfg.ChannelID)
}

// Subscribe listens for participant reports over MQTT. It is a no-op
// without a broker.
func (svc *service) Subscribe(ctx context.Context) error {
	if svc.pubsub == nil {
		return nil
	}

	base := svc.reportsTopic()

	return svc.pubsub.Subscribe(ctx, base+"/#", svc.handle(ctx, base))
}

func (svc *service) unsubscribe(ctx context.Context) error {
	if svc.pubsub == nil {
		return nil
	}

	return svc.pubsub.Unsubscribe(ctx, svc.reportsTopic()+"/#")
}

func (svc *service) handle(ctx context.Context, base string) func(topic string, payload []byte) error {
	return func(topic string, payload []byte) error {
		switch topic {
		case base + taskReportSuffix:
			var r taskReport
			if err := json.Unmarshal(payload, &r); err != nil {
				return err
			}
			if !chain.IsAddress(r.Trainer) {
				return fmt.Errorf("%w: %q", errInvalidAddress, r.Trainer)
			}
			if _, err := svc.ReportTaskRequest(ctx, r.Trainer, r.JobID); err != nil {
				return err
			}
		case base + updateReportSuffix:
			var r UpdateReport
			if err := json.Unmarshal(payload, &r); err != nil {
				return err
			}
			if !chain.IsAddress(r.Trainer) {
				return fmt.Errorf("%w: %q", errInvalidAddress, r.Trainer)
			}
			if r.UpdateHash == "" {
				return errMissingUpdateHash
			}
			res, err := svc.ReportUpdate(ctx, r)
			if err != nil {
				return err
			}
			svc.logger.InfoContext(ctx, "update received over mqtt",
				slog.String("trainer", chain.ShortAddress(r.Trainer)),
				slog.String("status", string(res.Status)),
			)
		case base + validationReportSuffix:
			var r ValidationReport
			if err := json.Unmarshal(payload, &r); err != nil {
				return err
			}
			if !chain.IsAddress(r.Validator) {
				return fmt.Errorf("%w: %q", errInvalidAddress, r.Validator)
			}
			if _, err := svc.ReportValidation(ctx, r); err != nil {
				return err
			}
		}

		return nil
	}
}

func (svc *service) publishRound(ctx context.Context, round RoundResult) {
	if svc.pubsub == nil {
		return
	}

	topic := fmt.Sprintf(epochsTopicTemplate, svc.cfg.DomainID, svc.cfg.ChannelID)
	if err := svc.pubsub.Publish(ctx, topic, round); err != nil {
		svc.logger.Warn("failed to publish epoch", slog.Uint64("epoch", round.Epoch), slog.Any("error", err))
	}
}
