package standings

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/cmd/util"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/standings"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/snapshot"
)

var (
	inputFile string
	selector  string
	batchID   int64
	mode      string
	missing   string
)

func NewStandingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "computes the standings of a batch",
		Long: `Ranks the riders of a batch either from a snapshot file (--input)
or from the results stored in the database (--batch-id).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options()
			if err != nil {
				return err
			}
			if inputFile != "" {
				return fromFile(cmd, opts)
			}
			if batchID == 0 {
				return errors.New("either --input or --batch-id is required")
			}
			return fromDB(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "snapshot file (yaml or json)")
	cmd.Flags().StringVar(&selector, "select", "",
		"JSONPath selecting the snapshot within the input, e.g. '$.batches[0]'")
	cmd.Flags().Int64Var(&batchID, "batch-id", 0, "batch stored in the database")
	cmd.Flags().StringVar(&mode, "mode", "tiebreak", "ordering (tiebreak, simple, seed)")
	cmd.Flags().StringVar(&missing, "missing", "zero",
		"riders without results (zero, last, exclude)")
	cmd.Flags().StringVarP(&util.OutputFormat, "output", "o", "yaml", "output format (yaml, json)")
	util.AddLogFlags(cmd)
	util.AddStoreFlags(cmd)
	return cmd
}

func options() ([]standings.Option, error) {
	m, err := standings.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	p, err := standings.ParseMissingPolicy(missing)
	if err != nil {
		return nil, err
	}
	return []standings.Option{standings.WithMode(m), standings.WithMissingPolicy(p)}, nil
}

func fromFile(cmd *cobra.Command, opts []standings.Option) error {
	if _, err := util.SetupLogger(); err != nil {
		return err
	}
	f, err := os.Open(inputFile)
	if err != nil {
		return err
	}
	defer f.Close()
	s, err := snapshot.Load(f, selector)
	if err != nil {
		return err
	}
	ret, err := s.Standings(opts...)
	if err != nil {
		return err
	}
	return util.Write(cmd.OutOrStdout(), ret)
}

func fromDB(cmd *cobra.Command, opts []standings.Option) error {
	ctx := context.Background()
	env, err := util.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	ret, err := env.Service.BatchStandings(ctx, batchID, opts...)
	if err != nil {
		return err
	}
	return util.Write(cmd.OutOrStdout(), ret)
}
