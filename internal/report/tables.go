package report

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// TableNames はテーブルビューアで選べるテーブル。
var TableNames = []string{
	"event",
	"market_buy_event",
	"market_sell_event",
	"mission_completed_event",
	"mission_completed_influence",
	"mission_failed_event",
	"faction_kill_bond_event",
	"redeem_voucher_event",
	"sell_exploration_data_event",
	"multi_sell_exploration_data_event",
	"activity",
	"system",
	"faction",
	"cmdr",
}

// ValidTable はテーブル名が選択肢に含まれるかどうかを返す。
func ValidTable(name string) bool {
	return containsString(TableNames, name)
}

// dateLayout は日付の入力形式。
const dateLayout = "2006-01-02"

// EventFilter は event テーブルの絞り込み条件。
type EventFilter struct {
	Cmdr   string
	Event  string
	TickID string
	// From と To はUTCの日付。To の0時ちょうどまでを含む。
	From time.Time
	To   time.Time
}

// DefaultEventFilter は今日から明日までの条件を返す。
func DefaultEventFilter(now time.Time) EventFilter {
	today := truncateDay(now.UTC())
	return EventFilter{From: today, To: today.AddDate(0, 0, 1)}
}

// ParseDate は YYYY-MM-DD をUTCの日付として解析する。空や不正な値の場合は fallback を返す。
func ParseDate(s string, fallback time.Time) time.Time {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return fallback
	}
	return t
}

// FormatDate は日付を YYYY-MM-DD にする。
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EventOptions は event テーブルの絞り込みの選択肢。
type EventOptions struct {
	Cmdrs  []string
	Events []string
	// TickIDs は新しい順に並べる。
	TickIDs []string
}

// TableView はテーブルビューアの表示内容。
type TableView struct {
	Name    string
	Table   *Table
	Options *EventOptions
	// RawJSON は選択した行の raw_json を整形したもの。
	RawJSON string
	// RawJSONErr は raw_json を解析できなかった場合のメッセージ。
	RawJSONErr string
	// SelectedRow は raw_json を表示している行番号（0始まり）。
	SelectedRow int
}

// BuildTableView は table/<name> の応答からテーブルビューアの表示内容を組み立てる。
// event テーブルの場合だけ filter を適用し、selectedRow 行目の raw_json を整形する。
func BuildTableView(name string, rows []Row, filter EventFilter, selectedRow int) *TableView {
	view := &TableView{Name: name}
	if name == "event" {
		view.Options = &EventOptions{
			Cmdrs:   distinct(rows, "cmdr"),
			Events:  distinct(rows, "event"),
			TickIDs: distinct(rows, "tickid"),
		}
		sort.Sort(sort.Reverse(sort.StringSlice(view.Options.TickIDs)))
		rows = filterEvents(rows, filter)
	}

	view.Table = Build(rows, Spec{Raw: true})
	view.Table.Title = name
	view.Table.Empty = "No data returned."

	if name == "event" && len(rows) > 0 {
		if selectedRow < 0 || selectedRow >= len(rows) {
			selectedRow = 0
		}
		view.SelectedRow = selectedRow
		if rows[selectedRow].Has("raw_json") {
			view.RawJSON, view.RawJSONErr = prettyJSON(rows[selectedRow]["raw_json"])
		}
	}
	return view
}

func filterEvents(rows []Row, f EventFilter) []Row {
	var out []Row
	for _, r := range rows {
		if f.Cmdr != "" && r.Str("cmdr") != f.Cmdr {
			continue
		}
		if f.Event != "" && r.Str("event") != f.Event {
			continue
		}
		if f.TickID != "" && r.Str("tickid") != f.TickID {
			continue
		}
		if !f.From.IsZero() || !f.To.IsZero() {
			ts, ok := parseTimestamp(r.Str("timestamp"))
			if !ok {
				continue
			}
			if !f.From.IsZero() && ts.Before(f.From) {
				continue
			}
			if !f.To.IsZero() && ts.After(f.To) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

// parseTimestamp はタイムゾーンのない時刻をUTCとして解析する。
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// prettyJSON は raw_json の値を字下げしたJSONにする。値は文字列またはオブジェクト。
func prettyJSON(v any) (string, string) {
	var raw []byte
	switch t := v.(type) {
	case string:
		raw = []byte(t)
		if !json.Valid(raw) {
			return "", "Failed to parse raw_json"
		}
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", "Failed to parse raw_json"
		}
		raw = b
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", "Failed to parse raw_json"
	}
	return buf.String(), ""
}
