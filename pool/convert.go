package pool

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// decodeInto normalizes a payload that arrived either as a live Go value
// (an in-process wire.ChanConn hands back exactly what was sent) or as a
// JSON-decoded map[string]interface{} (a transport/procexec.PipeConn
// round-trips every payload through jsoniter) into out, a pointer to a
// concrete struct.
func decodeInto(payload interface{}, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
