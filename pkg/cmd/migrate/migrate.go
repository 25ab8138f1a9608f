package migrate

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/cmd/util"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/config"
	dbMigrate "github.com/kumpetisi/pushbike-service-manager-go/pkg/db/migrate"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}
	util.AddLogFlags(cmd)
	return cmd
}

func startMigration() error {
	if _, err := util.SetupLogger(); err != nil {
		return err
	}
	util.WaitForRequiredServices(context.Background())

	if err := dbMigrate.MigrateDb(config.DB); err != nil {
		log.Error("migration failed", log.ErrorField(err))
		return err
	}
	version, dirty, err := dbMigrate.Version(config.DB)
	if err != nil {
		return err
	}
	log.Info("database migrated", log.Any("version", version), log.Bool("dirty", dirty))
	return nil
}
