package apiclient

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Flag はtrue/false・0/1・文字列のいずれで返されても真偽値として扱うフィールド。
// 空でない文字列（"false" と "0" を除く）は真とみなす。
type Flag bool

// UnmarshalJSON はJSON値を真偽値として解釈する。
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = false
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = Flag(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ToLower(s))
		*f = Flag(s != "" && s != "false" && s != "0")
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			*f = true
			return nil
		}
		*f = Flag(n != 0)
	}
	return nil
}

// ID は数値と文字列のどちらで返されても文字列として保持する識別子。
type ID string

// UnmarshalJSON は数値または文字列のJSON値を識別子として解釈する。
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
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
	*id = ID(string(data))
	return nil
}
