package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <archive> <virtual-path>",
		Short: "Print one entry's contents to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openLoaded(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.Get(args[1])
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(b)
			return err
		},
	}
	return cmd
}
