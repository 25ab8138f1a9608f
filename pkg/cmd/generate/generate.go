package generate

import (
	"github.com/spf13/cobra"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/cmd/util"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/bracket"
)

var (
	numBatches      int
	maxParticipants int
)

func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "prints the stages, batches and races of a class",
		Long: `Generates the bracket of a class from the number of qualifying batches
and the maximum number of riders per batch. Nothing is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := util.SetupLogger(); err != nil {
				return err
			}
			s, err := bracket.Generate(numBatches, maxParticipants)
			if err != nil {
				return err
			}
			return util.Write(cmd.OutOrStdout(), s.Stages)
		},
	}
	cmd.Flags().IntVarP(&numBatches, "batches", "n", 2, "number of qualifying batches (1-8)")
	cmd.Flags().IntVarP(&maxParticipants, "max-participants", "m", 8,
		"max riders per batch (1-8)")
	cmd.Flags().StringVarP(&util.OutputFormat, "output", "o", "yaml", "output format (yaml, json)")
	util.AddLogFlags(cmd)
	return cmd
}
