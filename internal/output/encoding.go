package output

import (
	"bytes"
	"encoding/json"
	"io"
)

// DeterministicEncode produces byte-identical compact JSON output
// - Keys follow struct field order
// - HTML characters are not escaped
// - No trailing newline
func DeterministicEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, v, ""); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DeterministicEncodeIndented produces indented byte-identical JSON output
// terminated by a newline
func DeterministicEncodeIndented(v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, v, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(w io.Writer, v interface{}, indent string) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if indent != "" {
		encoder.SetIndent("", indent)
	}
	return encoder.Encode(v)
}
