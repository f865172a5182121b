package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/emrgen/manual"
	v1 "github.com/emrgen/manual/apis/v1"
	"github.com/emrgen/manual/internal/model"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(contentCmd())
}

func treeCmd() *cobra.Command {
	var groupCode string
	var collapsed bool

	command := &cobra.Command{
		Use:     "tree",
		Short:   "show the manual tree of a group",
		Example: "manual tree -g <group-code>",
		Run: func(cmd *cobra.Command, args []string) {
			client, err := manual.NewClient(serverAddr)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			expand := !collapsed
			res, err := client.ListManualTree(context.Background(), &v1.ListManualTreeRequest{
				GroupCode: groupCode,
				Expand:    &expand,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Group", "Level", "Sort", "Content"})
			model.WalkForest(res.Manuals, func(node *model.ManualNode) {
				size := "-"
				if node.HasContent() {
					size = strconv.Itoa(len(*node.Content))
				}
				table.Append([]string{
					strconv.FormatUint(node.ID, 10),
					strings.Repeat("  ", node.Level) + node.Name,
					node.GroupCode,
					strconv.Itoa(node.Level),
					strconv.Itoa(node.Sort),
					size,
				})
			})
			table.Render()
		},
	}

	command.Flags().StringVarP(&groupCode, "group", "g", "", "group code, empty lists every group")
	command.Flags().BoolVar(&collapsed, "collapsed", false, "mark the nodes as closed")

	return command
}

func importCmd() *cobra.Command {
	var file string
	var groupCode string

	var required = []string{"file", "group"}

	command := &cobra.Command{
		Use:     "import",
		Short:   "import a zip archive as a manual tree",
		Example: "manual import -f <archive.zip> -g <group-code>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			client, err := manual.NewClient(serverAddr)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			_, err = client.ImportManualArchive(context.Background(), &v1.ImportManualArchiveRequest{
				GroupCode: groupCode,
				Archive:   data,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			color.Green("imported %s into group %s\n", file, groupCode)
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "zip archive")
	command.Flags().StringVarP(&groupCode, "group", "g", "", "group code")

	return command
}

func saveCmd() *cobra.Command {
	var file string

	var required = []string{"file"}

	command := &cobra.Command{
		Use:     "save",
		Short:   "save an edited manual tree",
		Long:    `save an edited manual tree read from a json file shaped as {"list": [...], "deletedList": [...]}`,
		Example: "manual save -f <edits.json>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			var req v1.SaveManualsRequest
			if err := json.Unmarshal(data, &req); err != nil {
				color.Red("invalid edits file: %v\n", err)
				return
			}

			client, err := manual.NewClient(serverAddr)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			if _, err := client.SaveManuals(context.Background(), &req); err != nil {
				logrus.Error(err)
				return
			}

			color.Green("saved %d and deleted %d manual trees\n", len(req.List), len(req.DeletedList))
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "json file with the edited trees")

	return command
}

func contentCmd() *cobra.Command {
	var id uint64
	var file string

	var required = []string{"id", "file"}

	command := &cobra.Command{
		Use:     "content",
		Short:   "replace the content of a manual with a file",
		Example: "manual content -i <manual-id> -f <file>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			client, err := manual.NewClient(serverAddr)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			res, err := client.ReplaceManualContent(context.Background(), &v1.ReplaceManualContentRequest{
				ManualId: id,
				Content:  data,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Key", "Content"})
			size := "-"
			if res.Manual.HasContent() {
				size = strconv.Itoa(len(*res.Manual.Content))
			}
			table.Append([]string{strconv.FormatUint(res.Manual.ID, 10), res.Manual.Name, res.Manual.Key, size})
			table.Render()
		},
	}

	command.Flags().Uint64VarP(&id, "id", "i", 0, "manual id")
	command.Flags().StringVarP(&file, "file", "f", "", "content file")

	return command
}
