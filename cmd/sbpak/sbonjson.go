package main

import (
	"bytes"
	"encoding/json"

	"github.com/sbasset6/sbpak/sbon"
)

// toJSON converts a sbon.Value tree to plain interface{} so it can be
// marshaled for display. Map ordering is not preserved by encoding/json
// (it always sorts object keys), which is acceptable for human-facing
// output; round-tripping relies on sbon.WriteValue, never on this.
func toJSON(v sbon.Value) interface{} {
	switch v.Kind {
	case sbon.KindNull:
		return nil
	case sbon.KindFloat64:
		return v.Float
	case sbon.KindBool:
		return v.Bool
	case sbon.KindInt64:
		return v.Int
	case sbon.KindString:
		return v.Str
	case sbon.KindList:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = toJSON(item)
		}
		return out
	case sbon.KindMap:
		out := make(map[string]interface{})
		if v.MapVal != nil {
			for _, k := range v.MapVal.Keys() {
				val, _ := v.MapVal.Get(k)
				out[k] = toJSON(val)
			}
		}
		return out
	default:
		return nil
	}
}

// prettyPrint re-indents already-marshaled JSON, the way pedumper.go's
// prettyPrint formats its dumped PE directories.
func prettyPrint(buf []byte) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "  "); err != nil {
		return string(buf)
	}
	return pretty.String()
}
