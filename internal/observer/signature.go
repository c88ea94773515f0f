package observer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Signature canonicalizes opts: keys are sorted and the options are
// serialized in that order, so two maps with the same pairs always produce
// the same string.
func Signature(opts Options) (string, error) {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", fmt.Errorf("encode option key %q: %w", k, err)
		}
		// Nested maps are emitted with sorted keys by encoding/json.
		vb, err := json.Marshal(opts[k])
		if err != nil {
			return "", fmt.Errorf("encode option %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}
