package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dest-dir> <archive> [archive...]",
		Short: "Extract multiple independent archives concurrently",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			destDir, archives := args[0], args[1:]

			// Every archive is independent, so errgroup fans them out
			// without coordination (spec §5 forbids concurrent mutation
			// of a *single* archive, not concurrent use of several).
			var g errgroup.Group
			for _, archivePath := range archives {
				archivePath := archivePath
				g.Go(func() error {
					name := filepath.Base(archivePath)
					ext := filepath.Ext(name)
					dest := filepath.Join(destDir, name[:len(name)-len(ext)])
					return extractTo(archivePath, dest)
				})
			}
			return g.Wait()
		},
	}
	return cmd
}
