package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Row はAPIが返すJSONオブジェクト1件。値は数値なら float64、文字列なら string になる。
type Row map[string]any

// Rows はデコード済みのJSON配列を Row のスライスに変換する。
func Rows(raw []map[string]any) []Row {
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, Row(r))
	}
	return rows
}

// Has はキーが存在し、値がnullでないかどうかを返す。
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Str は値を文字列として返す。存在しない場合は空文字列。
func (r Row) Str(key string) string {
	return stringify(r[key])
}

// Num は値を数値として返す。数値に変換できない場合は ok が false になる。
func (r Row) Num(key string) (float64, bool) {
	return toFloat(r[key])
}

// Float は値を数値として返す。変換できない場合は0。
func (r Row) Float(key string) float64 {
	v, _ := toFloat(r[key])
	return v
}

// Int は値を整数として返す。小数部は切り捨てる。
func (r Row) Int(key string) int64 {
	return int64(r.Float(key))
}

// Object は入れ子のオブジェクトを返す。
func (r Row) Object(key string) Row {
	if m, ok := r[key].(map[string]any); ok {
		return Row(m)
	}
	return nil
}

// List は入れ子のオブジェクト配列を返す。オブジェクト以外の要素は無視する。
func (r Row) List(key string) []Row {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, Row(m))
		}
	}
	return rows
}

// Strings は文字列配列を返す。
func (r Row) Strings(key string) []string {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Keys はキーをアルファベット順に返す。
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ColumnKeys は全行に現れるキーを、先頭の行で見つかった順ではなくアルファベット順にまとめる。
// id と name は先頭に並べる。
func ColumnKeys(rows []Row) []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := keyPriority(keys[i]), keyPriority(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func keyPriority(key string) int {
	switch key {
	case "id":
		return 0
	case "name":
		return 1
	default:
		return 2
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
