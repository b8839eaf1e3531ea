package report

import (
	"sort"
	"strings"
)

// CZKind は戦闘区域の種類。
type CZKind string

const (
	// SpaceCZ は宇宙の戦闘区域。
	SpaceCZ CZKind = "space"
	// GroundCZ は地上の戦闘区域。
	GroundCZ CZKind = "ground"
)

// Label は表示名を返す。
func (k CZKind) Label() string {
	if k == GroundCZ {
		return "Ground"
	}
	return "Space"
}

// Path は集計APIのパスを返す。
func (k CZKind) Path() string {
	if k == GroundCZ {
		return "syntheticgroundcz-summary"
	}
	return "syntheticcz-summary"
}

// ParseCZKind は文字列を CZKind に変換する。不明な値は SpaceCZ になる。
func ParseCZKind(s string) CZKind {
	if CZKind(s) == GroundCZ {
		return GroundCZ
	}
	return SpaceCZ
}

// czTypes は戦闘区域の強度。
var czTypes = []string{"Low", "Medium", "High"}

// CZCount は強度ごとの件数。
type CZCount struct {
	Type  string
	Count float64
}

// CZReport は戦闘区域ページの表示内容。
type CZReport struct {
	Kind CZKind
	// Systems は選択できるスターシステム。応答がオブジェクトの場合は空。
	Systems []string
	System  string
	Counts  []CZCount
	Total   float64
	Cmdrs   *Table
	// Settlements は居住地ごとの件数。地上の場合だけ設定する。
	Settlements *Table
	// Empty はデータがない場合のメッセージ。データがある場合は空文字列。
	Empty string
}

// CZ は戦闘区域の集計APIの応答を組み立てる。
// 応答はレコードの配列か、集計済みのオブジェクトのどちらか。配列の場合はsystemで1つのシステムを選ぶ。
func CZ(kind CZKind, data any, system string) *CZReport {
	rep := &CZReport{Kind: kind}
	switch v := data.(type) {
	case []any:
		rows := make([]Row, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, Row(m))
			}
		}
		if len(rows) > 0 {
			czFromRecords(rep, rows, system)
			return rep
		}
	case map[string]any:
		if r := Row(v); r.Object("summary") != nil {
			czFromSummary(rep, r)
			return rep
		}
	}
	rep.Empty = "No " + kind.Label() + " CZ data found"
	return rep
}

func czFromRecords(rep *CZReport, rows []Row, system string) {
	rep.Systems = distinct(rows, "starsystem")
	rep.System = system
	if !containsString(rep.Systems, system) && len(rep.Systems) > 0 {
		rep.System = rep.Systems[0]
	}

	counts := map[string]float64{}
	type cmdrCounts struct {
		byType map[string]float64
		total  float64
	}
	perCmdr := map[string]*cmdrCounts{}
	var cmdrOrder []string
	settlements := map[string]float64{}
	var settlementOrder []string

	for _, r := range rows {
		if r.Str("starsystem") != rep.System {
			continue
		}
		n := r.Float("cz_count")
		czType := strings.ToLower(r.Str("cz_type"))
		counts[czType] += n
		rep.Total += n

		cmdr := r.Str("cmdr")
		c, ok := perCmdr[cmdr]
		if !ok {
			c = &cmdrCounts{byType: map[string]float64{}}
			perCmdr[cmdr] = c
			cmdrOrder = append(cmdrOrder, cmdr)
		}
		c.byType[czType] += n
		c.total += n

		if rep.Kind == GroundCZ {
			name := r.Str("settlement")
			if _, ok := settlements[name]; !ok {
				settlementOrder = append(settlementOrder, name)
			}
			settlements[name] += n
		}
	}

	for _, t := range czTypes {
		rep.Counts = append(rep.Counts, CZCount{Type: t, Count: counts[strings.ToLower(t)]})
	}

	rep.Cmdrs = czCmdrTable()
	for _, cmdr := range cmdrOrder {
		c := perCmdr[cmdr]
		cells := []Cell{{Text: cmdr}}
		for _, t := range czTypes {
			cells = append(cells, numberCell(c.byType[strings.ToLower(t)]))
		}
		cells = append(cells, numberCell(c.total))
		rep.Cmdrs.Rows = append(rep.Cmdrs.Rows, cells)
	}

	if rep.Kind == GroundCZ {
		sort.Strings(settlementOrder)
		rep.Settlements = czSettlementTable()
		for _, name := range settlementOrder {
			rep.Settlements.Rows = append(rep.Settlements.Rows, []Cell{{Text: name}, numberCell(settlements[name])})
		}
	}
}

func czFromSummary(rep *CZReport, r Row) {
	summary := r.Object("summary")
	rep.System = summary.Str("system")
	if rep.System == "" {
		rep.System = "System"
	}
	for _, t := range czTypes {
		n := summary.Float(strings.ToLower(t))
		rep.Counts = append(rep.Counts, CZCount{Type: t, Count: n})
		rep.Total += n
	}

	rep.Cmdrs = czCmdrTable()
	rep.Cmdrs.Empty = "No Cmdr distribution data available."
	for _, d := range r.List("cmdr_distribution") {
		rep.Cmdrs.Rows = append(rep.Cmdrs.Rows, []Cell{
			{Text: d.Str("cmdr")},
			numberCell(d.Float("low")),
			numberCell(d.Float("medium")),
			numberCell(d.Float("high")),
			numberCell(d.Float("total")),
		})
	}

	if rep.Kind == GroundCZ {
		rep.Settlements = czSettlementTable()
		rep.Settlements.Empty = "No settlement data available."
		for _, s := range r.List("settlements") {
			rep.Settlements.Rows = append(rep.Settlements.Rows, []Cell{{Text: s.Str("settlement")}, numberCell(s.Float("czs"))})
		}
	}
}

func czCmdrTable() *Table {
	cols := []Column{{Label: "Cmdr", Pinned: true}}
	for _, t := range czTypes {
		cols = append(cols, Column{Label: t, Numeric: true})
	}
	cols = append(cols, Column{Label: "Total", Numeric: true})
	return &Table{Title: "Cmdr Distribution", Columns: cols}
}

func czSettlementTable() *Table {
	return &Table{
		Title:   "Settlements",
		Columns: []Column{{Label: "Settlement"}, {Label: "CZs", Numeric: true}},
	}
}

func numberCell(v float64) Cell {
	return Cell{Text: Number(v), Value: v, Numeric: true}
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
