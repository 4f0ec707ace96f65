package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/sbasset6/sbpak/pak"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <archive> <source-dir>",
		Short: "Build a new archive from every regular file under source-dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, sourceDir := args[0], args[1]

			a := pak.New(archivePath)
			a.SetObserver(newObserver())

			err := filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					return nil
				}
				rel, err := filepath.Rel(sourceDir, path)
				if err != nil {
					return err
				}
				virtualPath := filepath.ToSlash(rel)
				return a.Table().Set(virtualPath, pak.FromPath(path, 0, nil))
			})
			if err != nil {
				return xerrors.Errorf("sbpak: create %s: %w", archivePath, err)
			}

			_, err = a.Save()
			return err
		},
	}
	return cmd
}
