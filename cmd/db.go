package cmd

import (
	"os"
	"strconv"

	"github.com/emrgen/manual/internal/config"
	"github.com/emrgen/manual/internal/model"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "manual database commands",
}

func init() {
	dbCmd.AddCommand(migrateCmd())
	dbCmd.AddCommand(statusCmd())
}

func migrateCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "migrate",
		Short:   "create or update the manuals table",
		Example: "manual db migrate",
		Run: func(cmd *cobra.Command, args []string) {
			cnf := config.LoadConfig()
			if err := model.Migrate(config.GetDb(cnf)); err != nil {
				logrus.Fatalf("migration failed: %v", err)
			}
			logrus.Infof("%s database migrated", cnf.DB.Type)
		},
	}

	return command
}

func statusCmd() *cobra.Command {
	var groupCode string

	command := &cobra.Command{
		Use:     "status",
		Short:   "show the number of stored manuals per group",
		Example: "manual db status -g <group-code>",
		Run: func(cmd *cobra.Command, args []string) {
			db := config.GetDb(config.LoadConfig())
			if !db.Migrator().HasTable(&model.Manual{}) {
				color.Yellow("manuals table is missing, run: manual db migrate\n")
				return
			}

			counts, err := model.CountManualsByGroup(db)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Group", "Manuals"})
			for _, count := range counts {
				if groupCode != "" && count.GroupCode != groupCode {
					continue
				}
				table.Append([]string{count.GroupCode, strconv.FormatInt(count.Count, 10)})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&groupCode, "group", "g", "", "only show this group")

	return command
}
