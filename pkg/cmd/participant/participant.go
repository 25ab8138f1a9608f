package participant

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/cmd/util"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

func NewParticipantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant",
		Short: "manage the riders of a batch",
	}
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	return cmd
}

func newAddCmd() *cobra.Command {
	p := model.Participant{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "registers a rider in a batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.Service.RegisterParticipant(ctx, &p); err != nil {
				return err
			}
			return util.Write(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().Int64Var(&p.BatchID, "batch-id", 0, "batch of the rider")
	cmd.Flags().StringVar(&p.Number, "number", "", "plate number")
	cmd.Flags().StringVar(&p.Name, "name", "", "name of the rider")
	cmd.Flags().StringVar(&p.Nickname, "nickname", "", "nickname of the rider")
	cmd.Flags().StringVar(&p.Club, "club", "", "club or community")
	addCommonFlags(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	var batchID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists the riders of a batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			ret, err := env.Service.Participants(ctx, batchID)
			if err != nil {
				return err
			}
			return util.Write(cmd.OutOrStdout(), ret)
		},
	}
	cmd.Flags().Int64Var(&batchID, "batch-id", 0, "batch of the riders")
	addCommonFlags(cmd)
	return cmd
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&util.OutputFormat, "output", "o", "yaml", "output format (yaml, json)")
	util.AddLogFlags(cmd)
	util.AddStoreFlags(cmd)
}
