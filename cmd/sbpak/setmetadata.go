package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/sbasset6/sbpak/sbon"
)

func newSetMetadataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-metadata <archive> <json-file>",
		Short: "Replace an archive's metadata map from a JSON object and resave",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, jsonPath := args[0], args[1]

			raw, err := os.ReadFile(jsonPath)
			if err != nil {
				return err
			}
			var obj map[string]interface{}
			if err := json.Unmarshal(raw, &obj); err != nil {
				return xerrors.Errorf("sbpak: set-metadata: %w", err)
			}

			a, err := openLoaded(archivePath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.SetMetadata(fromJSON(obj)); err != nil {
				return err
			}
			_, err = a.Save()
			return err
		},
	}
	return cmd
}

// fromJSON converts a decoded JSON value back into a sbon.Value tree. Map
// keys are inserted in Go's map iteration order, which is not defined and
// can differ between runs; that only matters for byte-identical
// re-serialization, not for this CLI's purpose of replacing metadata.
func fromJSON(v interface{}) sbon.Value {
	switch t := v.(type) {
	case nil:
		return sbon.Null()
	case bool:
		return sbon.BoolValue(t)
	case float64:
		return sbon.Float64Value(t)
	case string:
		return sbon.StringValue(t)
	case []interface{}:
		items := make([]sbon.Value, len(t))
		for i, item := range t {
			items[i] = fromJSON(item)
		}
		return sbon.ListValue(items)
	case map[string]interface{}:
		m := sbon.NewMap()
		for k, val := range t {
			m.Set(k, fromJSON(val))
		}
		return sbon.MapValue(m)
	default:
		return sbon.Null()
	}
}
