package cmd

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srgtools/remap"
	"github.com/srgtools/remap/mapping"
)

var (
	projectTypeFlag string
	workersFlag     int

	applyCmd = &cobra.Command{
		Use:   "apply <csvDir> <srcDir> <outDir>",
		Short: "Rewrite the source tree in srcDir into outDir using the mapping files in csvDir",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				_ = cmd.Help()
				return errors.New("need arguments <csvDir> <srcDir> <outDir>")
			}
			projectType, err := mapping.ParseProjectType(projectTypeFlag)
			if err != nil {
				return err
			}
			task := remap.Task{
				ProjectType: projectType,
				CSVDir:      args[0],
				SrcDir:      args[1],
				OutDir:      args[2],
				Workers:     workersFlag,
				Logger:      logrus.StandardLogger(),
			}
			return task.Run()
		},
	}
)

func init() {
	applyCmd.Flags().StringVarP(&projectTypeFlag, "type", "t", "joined", "project type: client, server or joined")
	applyCmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "parallel file workers (default: number of CPUs)")
	rootCmd.AddCommand(applyCmd)
}
