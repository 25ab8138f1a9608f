package competition

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/cmd/util"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

const dateLayout = "2006-01-02"

func NewCompetitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "competition",
		Short: "manage competitions",
	}
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())
	return cmd
}

func newCreateCmd() *cobra.Command {
	var c model.Competition
	var start, end string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "creates a competition",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if c.StartDate, err = parseDate(start); err != nil {
				return err
			}
			if c.EndDate, err = parseDate(end); err != nil {
				return err
			}
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.Service.CreateCompetition(ctx, &c); err != nil {
				return err
			}
			return util.Write(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&c.Name, "name", "", "name of the competition")
	cmd.Flags().StringVar(&c.ShortCode, "short-code", "",
		"short code used in urls (2-10 lowercase letters or digits)")
	cmd.Flags().StringVar(&c.Location, "location", "", "where the competition takes place")
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day (YYYY-MM-DD)")
	addCommonFlags(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists all competitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			ret, err := env.Service.Competitions(ctx)
			if err != nil {
				return err
			}
			return util.Write(cmd.OutOrStdout(), ret)
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete SHORT_CODE",
		Short: "deletes a competition including classes and results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := util.NewEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()
			if err := env.Service.DeleteCompetition(ctx, args[0]); err != nil {
				return err
			}
			log.Info("competition deleted", log.String("shortCode", args[0]))
			return nil
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

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t, nil
}
