package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var showMetadata bool
	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List the virtual paths an archive contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoaded(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			for _, p := range a.List() {
				fmt.Println(p)
			}

			if showMetadata {
				b, err := json.Marshal(toJSON(a.Metadata()))
				if err != nil {
					return err
				}
				fmt.Println(prettyPrint(b))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMetadata, "metadata", false, "also print the archive's metadata map")
	return cmd
}
