package internal

import (
	"fmt"
	"text/tabwriter"

	"github.com/goplus/tasslsrc/internal/config"
	"github.com/goplus/tasslsrc/pkgs/target"
	"github.com/spf13/cobra"
)

var targetsConfig string

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List supported target triples",
	Long:  `Targets prints each target triple with the TASSL Configure platform id it maps to. Entries from --config come first and take precedence.`,
	Args:  cobra.NoArgs,
	RunE:  runTargets,
}

func init() {
	targetsCmd.Flags().StringVarP(&targetsConfig, "config", "c", "", "YAML file with extra targets")
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(targetsConfig)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIPLE\tPLATFORM")
	for _, m := range cfg.Table(target.Default) {
		fmt.Fprintf(tw, "%s\t%s\n", m.Triple, m.ID)
	}
	return tw.Flush()
}
