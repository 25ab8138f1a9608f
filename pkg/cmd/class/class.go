package class

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/cmd/util"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/service"
)

func NewClassCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "class",
		Short: "manage classes of a competition",
	}
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newStageStatusCmd())
	return cmd
}

func newCreateCmd() *cobra.Command {
	var shortCode string
	req := service.CreateClassRequest{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "creates a class and its bracket",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			c, err := env.Service.CompetitionByShortCode(ctx, shortCode)
			if err != nil {
				return err
			}
			req.CompetitionID = c.ID
			ret, err := env.Service.CreateClass(ctx, req)
			if err != nil {
				return err
			}
			return util.Write(cmd.OutOrStdout(), ret)
		},
	}
	cmd.Flags().StringVarP(&shortCode, "competition", "c", "", "short code of the competition")
	cmd.Flags().StringVar(&req.Name, "name", "", "name of the class, e.g. '2020 Girl'")
	cmd.Flags().IntVarP(&req.NumBatches, "batches", "n", 2, "number of qualifying batches (1-8)")
	cmd.Flags().IntVarP(&req.MaxParticipants, "max-participants", "m", 8,
		"max riders per batch (1-8)")
	addCommonFlags(cmd)
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show SHORT_CODE CLASS",
		Short: "shows a class by competition short code and class slug or id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			var ret *model.Class
			if id, convErr := strconv.ParseInt(args[1], 10, 64); convErr == nil {
				ret, err = env.Service.Class(ctx, id)
			} else {
				ret, err = env.Service.ClassBySlug(ctx, args[0], args[1])
			}
			if err != nil {
				return err
			}
			return util.Write(cmd.OutOrStdout(), ret)
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func newStageStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage-status STAGE_ID STATUS",
		Short: "sets the status of a stage (scheduled, in_progress, completed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stageID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			status, err := model.ParseStageStatus(args[1])
			if err != nil {
				return err
			}
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			return env.Service.SetStageStatus(ctx, stageID, status)
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&util.OutputFormat, "output", "o", "yaml", "output format (yaml, json)")
	util.AddLogFlags(cmd)
	util.AddStoreFlags(cmd)
}
