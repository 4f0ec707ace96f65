package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
	"golang.org/x/xerrors"
)

// version is the tool's own release tag, overridable at link time with
// -ldflags "-X main.version=vX.Y.Z" the way distri's build pipeline stamps
// its own binaries.
var version = "v0.0.0-dev"

func newVersionCmd() *cobra.Command {
	var checkMin string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the sbpak version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			if checkMin == "" {
				return nil
			}
			if !semver.IsValid(checkMin) {
				return xerrors.Errorf("sbpak: %q is not a valid semver", checkMin)
			}
			if semver.Compare(version, checkMin) < 0 {
				return xerrors.Errorf("sbpak: version %s is older than required minimum %s", version, checkMin)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&checkMin, "require-min", "", "fail if this build is older than the given semver")
	return cmd
}
