package grn

import (
	"bytes"
	"encoding/json"
	"regexp"
)

var (
	jsonNumber   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
	paddedNumber = regexp.MustCompile(`^(-?)0+([0-9]+(?:\.[0-9]+)?)$`)
)

// ID is a backend identifier or barcode. The backend sends some as numbers and
// some as strings; the text is kept verbatim and written back as a JSON number
// whenever it is one.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return id == "" }

// IsNumeric reports whether the identifier is a valid JSON number.
func (id ID) IsNumeric() bool { return jsonNumber.MatchString(string(id)) }

// number returns the identifier as a JSON number with leading zeros dropped,
// so "00123" is sent as 123.
func (id ID) number() (string, bool) {
	if m := paddedNumber.FindStringSubmatch(string(id)); m != nil {
		return m[1] + m[2], true
	}
	return string(id), id.IsNumeric()
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, ok := id.number(); ok {
		return []byte(n), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}
