package cli

import (
	"fmt"
	"strconv"

	"github.com/6amape9I/parallel--funetun/pkg/sdk"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var osdk sdk.SDK

func SetSDK(s sdk.SDK) {
	osdk = s
}

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Orchestrator status",
		Long:  `Show chain connectivity, simulation state and graph size.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := osdk.Status()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}
}

func NewGraphCmd() *cobra.Command {
	var table bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Interaction graph",
		Long:  `Show the nodes and edges of the interaction graph.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			g, err := osdk.Graph()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if !table {
				logJSONCmd(*cmd, g)

				return
			}
			if err := renderGraph(cmd, g); err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	}

	cmd.Flags().BoolVar(&table, "table", false, "Render nodes and edges as tables")

	return cmd
}

func renderGraph(cmd *cobra.Command, g sdk.Graph) error {
	out := cmd.OutOrStdout()

	nodes := tablewriter.NewWriter(out)
	nodes.Header("ID", "Label", "Type", "Status", "Last seen")
	for _, n := range g.Nodes {
		if err := nodes.Append(n.ID, n.Label, n.Type, n.Status, n.LastSeen.Format("15:04:05")); err != nil {
			return err
		}
	}
	if err := nodes.Render(); err != nil {
		return err
	}

	edges := tablewriter.NewWriter(out)
	edges.Header("Source", "Target", "Label", "Count", "Last seen")
	for _, e := range g.Edges {
		if err := edges.Append(e.Source, e.Target, e.Label, strconv.FormatUint(e.Count, 10), e.LastSeen.Format("15:04:05")); err != nil {
			return err
		}
	}
	if err := edges.Render(); err != nil {
		return err
	}

	j := g.JobState
	fmt.Fprintf(out, "\nepoch %d/%d, updates %d, validations %d, aggregations %d\n\n",
		j.CurrentEpoch, j.TotalEpochs, j.UpdatesSubmitted, j.ValidationsCompleted, j.AggregationsDone)

	return nil
}

func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset graph",
		Long:  `Clear the interaction graph and the job counters.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := osdk.ResetGraph(); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}
}

func NewSimulationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulation [start|stop|step]",
		Short: "Simulation control",
		Long:  `Start, stop or single-step the training round simulation.`,
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start simulation",
		Run: func(cmd *cobra.Command, _ []string) {
			s, err := osdk.StartSimulation()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop simulation",
		Run: func(cmd *cobra.Command, _ []string) {
			s, err := osdk.StopSimulation()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "Run one round",
		Long:  `Run one round synchronously. Fails while the simulation loop is running.`,
		Run: func(cmd *cobra.Command, _ []string) {
			r, err := osdk.StepSimulation()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	cmd.AddCommand(startCmd, stopCmd, stepCmd)

	return cmd
}
