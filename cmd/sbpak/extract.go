package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <archive> <dest-dir>",
		Short: "Extract every entry of an archive under dest-dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, destDir := args[0], args[1]
			return extractTo(archivePath, destDir)
		},
	}
	return cmd
}

// extractTo loads archivePath and writes every entry under destDir,
// recreating the virtual path's directory structure. Shared by the
// single-archive extract subcommand and batch's parallel fan-out.
func extractTo(archivePath, destDir string) error {
	a, err := openLoaded(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, p := range a.List() {
		b, err := a.Get(p)
		if err != nil {
			return xerrors.Errorf("sbpak: extract %s: %s: %w", archivePath, p, err)
		}
		dest := filepath.Join(destDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return xerrors.Errorf("sbpak: extract %s: %w", archivePath, err)
		}
		if err := os.WriteFile(dest, b, 0o644); err != nil {
			return xerrors.Errorf("sbpak: extract %s: %w", archivePath, err)
		}
	}
	return nil
}
