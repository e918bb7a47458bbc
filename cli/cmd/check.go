package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srgtools/remap"
	"github.com/srgtools/remap/mapping"
)

var (
	checkCmd = &cobra.Command{
		Use:   "check <csvDir>",
		Short: "Load the mapping files in csvDir and report the entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Help()
				return errors.New("need argument <csvDir>")
			}
			store, err := remap.LoadStore(args[0], mapping.Joined, logrus.StandardLogger())
			if err != nil {
				return err
			}
			fields, methods, params := store.Len()
			fmt.Printf("fields:  %d\n", fields)
			fmt.Printf("methods: %d\n", methods)
			fmt.Printf("params:  %d\n", params)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(checkCmd)
}
