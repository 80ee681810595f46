package main

import (
	"log"
	"os"

	"github.com/6amape9I/parallel--funetun/cli"
	"github.com/6amape9I/parallel--funetun/pkg/sdk"
	"github.com/spf13/cobra"
)

const (
	defOrchestratorURL = "http://localhost:8000"
	orchestratorURLEnv = "ORCHESTRATOR_URL"
)

func main() {
	var (
		orchestratorURL string
		tlsVerification bool
	)

	rootCmd := &cobra.Command{
		Use:   "orchestrator-cli",
		Short: "Orchestrator CLI",
		Long:  `Orchestrator CLI is a command line interface for inspecting and driving the training orchestrator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			s := sdk.NewSDK(sdk.Config{
				OrchestratorURL: orchestratorURL,
				TLSVerification: tlsVerification,
			})
			cli.SetSDK(s)
		},
	}

	url := defOrchestratorURL
	if v := os.Getenv(orchestratorURLEnv); v != "" {
		url = v
	}
	rootCmd.PersistentFlags().StringVarP(&orchestratorURL, "url", "u", url, "Orchestrator URL")
	rootCmd.PersistentFlags().BoolVar(&tlsVerification, "tls-verify", false, "Verify the server TLS certificate")

	rootCmd.AddCommand(
		cli.NewStatusCmd(),
		cli.NewGraphCmd(),
		cli.NewResetCmd(),
		cli.NewSimulationCmd(),
		cli.NewTrainerCmd(),
		cli.NewValidatorCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
