package cli

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/6amape9I/parallel--funetun/pkg/sdk"
	"github.com/spf13/cobra"
)

// Weights touched per training step in the synthetic delta.
const deltaWidth = 10

var errMissingAddress = errors.New("address is required")

func NewTrainerCmd() *cobra.Command {
	var (
		jobID   uint64
		trainer string
		index   uint64
		useCBOR bool
	)

	cmd := &cobra.Command{
		Use:   "trainer [run]",
		Short: "Trainer participant",
		Long:  `Act as a trainer: request a task, produce an update and submit its hash.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one training task",
		Long: `Request a task for the trainer, derive the update hash and submit it.

Examples:
  orchestrator-cli trainer run --job 1 --trainer 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
		Run: func(cmd *cobra.Command, _ []string) {
			if trainer == "" {
				logErrorCmd(*cmd, errMissingAddress)
				logUsageCmd(*cmd, "trainer run --job <id> --trainer <address>")

				return
			}

			task, err := osdk.GetTask(trainer, jobID)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			report := sdk.UpdateReport{
				Trainer:    trainer,
				JobID:      task.JobID,
				UpdateHash: UpdateHash(task, rand.Uint64()),
				Index:      index,
			}
			submit := osdk.SubmitUpdate
			if useCBOR {
				submit = osdk.SubmitUpdateCBOR
			}
			res, err := submit(report)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, task, res)
		},
	}

	runCmd.Flags().Uint64Var(&jobID, "job", 0, "Job ID")
	runCmd.Flags().StringVar(&trainer, "trainer", "", "Trainer address")
	runCmd.Flags().Uint64Var(&index, "index", 0, "Update index")
	runCmd.Flags().BoolVar(&useCBOR, "cbor", false, "Submit the update encoded as CBOR")

	cmd.AddCommand(runCmd)

	return cmd
}

func NewValidatorCmd() *cobra.Command {
	var (
		jobID     uint64
		validator string
		index     uint64
		invalid   bool
	)

	cmd := &cobra.Command{
		Use:   "validator [run]",
		Short: "Validator participant",
		Long:  `Act as a validator: submit a verdict for an update.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Submit one validation",
		Run: func(cmd *cobra.Command, _ []string) {
			if validator == "" {
				logErrorCmd(*cmd, errMissingAddress)
				logUsageCmd(*cmd, "validator run --job <id> --validator <address>")

				return
			}

			ack, err := osdk.SubmitValidation(sdk.ValidationReport{
				Validator: validator,
				JobID:     jobID,
				Index:     index,
				Valid:     !invalid,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, ack)
		},
	}

	runCmd.Flags().Uint64Var(&jobID, "job", 0, "Job ID")
	runCmd.Flags().StringVar(&validator, "validator", "", "Validator address")
	runCmd.Flags().Uint64Var(&index, "index", 0, "Update index")
	runCmd.Flags().BoolVar(&invalid, "invalid", false, "Reject the update")

	cmd.AddCommand(runCmd)

	return cmd
}

// UpdateHash returns the hex SHA-256 of a synthetic weight delta with
// task.Steps*deltaWidth float32 entries drawn from seed.
func UpdateHash(task sdk.Task, seed uint64) string {
	rng := rand.New(rand.NewPCG(seed, task.JobID))
	n := max(task.Steps, 1) * deltaWidth

	buf := make([]byte, 4*n)
	for i := range n {
		v := float32(rng.NormFloat64() * 0.01)
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	sum := sha256.Sum256(buf)

	return hex.EncodeToString(sum[:])
}
