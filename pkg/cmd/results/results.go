package results

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/cmd/util"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/snapshot"
)

func NewResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "manage race results",
	}
	cmd.AddCommand(newSaveCmd())
	return cmd
}

func newSaveCmd() *cobra.Command {
	var (
		raceID    int64
		inputFile string
		selector  string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "stores the results of a race",
		Long: `Reads a list of results (yaml or json) and stores them for the race.
Either 'position' or 'startPosition'/'finishPosition' is given per rider.
The whole list is rejected if a finish position is used twice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(inputFile)
			if err != nil {
				return err
			}
			defer f.Close()
			results, err := snapshot.LoadResults(f, selector)
			if err != nil {
				return err
			}
			for i := range results {
				if results[i].RaceID == 0 {
					results[i].RaceID = raceID
				}
			}

			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.Service.SaveRaceResults(ctx, raceID, results); err != nil {
				return err
			}
			log.Info("results saved", log.Int64("race", raceID), log.Int("results", len(results)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&raceID, "race-id", 0, "race the results belong to")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "result file (yaml or json)")
	cmd.Flags().StringVar(&selector, "select", "", "JSONPath selecting the result list")
	_ = cmd.MarkFlagRequired("race-id")
	_ = cmd.MarkFlagRequired("input")
	util.AddLogFlags(cmd)
	util.AddStoreFlags(cmd)
	return cmd
}
