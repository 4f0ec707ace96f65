// Command sbpak creates, lists, and extracts SBAsset6 archives.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sbasset6/sbpak/pak"
)

var verbose bool

func newObserver() pak.Observer {
	if !verbose {
		return pak.NoopObserver{}
	}
	return pak.LogObserver{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

func openLoaded(path string) (*pak.Archive, error) {
	a := pak.New(path)
	a.SetObserver(newObserver())
	return a.Load()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sbpak",
		Short: "Inspect and build SBAsset6 archives",
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress events to stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newListCmd(),
		newCatCmd(),
		newCreateCmd(),
		newExtractCmd(),
		newSetMetadataCmd(),
		newBatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
