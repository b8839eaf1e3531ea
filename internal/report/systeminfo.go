package report

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// SystemQuery は system-summary の検索条件。
type SystemQuery struct {
	System             string
	Faction            string
	ControllingFaction string
	ControllingPower   string
	Power              string
	State              string
	PendingState       string
	RecoveringState    string
	HasConflict        bool
}

// Path はAPIのパスを返す。システム名を指定した場合は system-summary/<name> になる。
func (q SystemQuery) Path() string {
	if q.System != "" {
		return "system-summary/" + url.PathEscape(q.System)
	}
	return "system-summary"
}

// Values はクエリパラメータを返す。空の条件は含めない。
func (q SystemQuery) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("faction", q.Faction)
	set("controlling_faction", q.ControllingFaction)
	set("controlling_power", q.ControllingPower)
	set("power", q.Power)
	set("state", q.State)
	set("pending_state", q.PendingState)
	set("recovering_state", q.RecoveringState)
	if q.HasConflict {
		v.Set("has_conflict", "true")
	}
	return v
}

// Ready は検索できる条件がそろっているかどうかを返す。
// システム名か、has_conflict 以外の条件が少なくとも1つ必要。
func (q SystemQuery) Ready() bool {
	if q.System != "" {
		return true
	}
	v := q.Values()
	v.Del("has_conflict")
	return len(v) > 0
}

// TooManySystems は条件に一致するシステムが多すぎる場合の応答。
type TooManySystems struct {
	Error   string   `json:"error"`
	Systems []string `json:"systems"`
	Count   int      `json:"count"`
}

// TooManySystemsLimit はAPIサーバーが返すシステム数の上限。
const TooManySystemsLimit = 100

// ParseTooManySystems は400応答の本文が「システムが多すぎる」応答かどうかを判定する。
func ParseTooManySystems(body []byte) (*TooManySystems, bool) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, false
	}
	r := Row(raw)
	if r.Str("error") == "" {
		return nil, false
	}
	if _, ok := raw["systems"].([]any); !ok {
		return nil, false
	}
	return &TooManySystems{
		Error:   r.Str("error"),
		Systems: r.Strings("systems"),
		Count:   int(r.Int("count")),
	}, true
}

// Chip はシステム情報の見出しに並べる項目。
type Chip struct {
	Label string
	Value string
	// Class は色分けのCSSクラス（ok, warn, info, pp, neut, red, vio, sky）。
	Class string
}

// SystemInfo は1システム分の表示内容。
type SystemInfo struct {
	Name      string
	Chips     []Chip
	Factions  *Table
	Conflicts *Table
}

// SystemInfos は system-summary の応答を組み立てる。応答はオブジェクトか配列のどちらか。
func SystemInfos(data any) []SystemInfo {
	var entries []Row
	switch v := data.(type) {
	case map[string]any:
		entries = []Row{Row(v)}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, Row(m))
			}
		}
	}

	infos := make([]SystemInfo, 0, len(entries))
	for _, e := range entries {
		sys := e.Object("system_info")
		name := sys.Str("system_name")
		if name == "" {
			name = "Unknown"
		}
		var pp Row
		if list := e.List("powerplays"); len(list) > 0 {
			pp = list[0]
		}
		infos = append(infos, SystemInfo{
			Name:      name,
			Chips:     headerChips(sys, pp),
			Factions:  systemFactionTable(e.List("factions")),
			Conflicts: ConflictTable(e.List("conflicts")),
		})
	}
	return infos
}

func headerChips(sys, pp Row) []Chip {
	government := Government(sys.Str("government"))
	security := Security(sys.Str("security"))
	controllingPower := sys.Str("controlling_power")

	var chips []Chip
	add := func(label, value, class string) {
		if value == "" || value == "-" || value == "null" {
			return
		}
		chips = append(chips, Chip{Label: label, Value: value, Class: class})
	}

	add("Controlling Faction", sys.Str("controlling_faction"), "ok")
	if controllingPower != "" {
		add("Controlling Power", controllingPower, "pp")
	}
	add("Allegiance", sys.Str("allegiance"), "info")
	add("Government", government, governmentClass(government))
	add("Security", security, securityClass(security))
	if pop, ok := sys.Num("population"); ok {
		add("Population", Population(int64(pop)), "neut")
	}

	if pp == nil {
		return chips
	}
	if powers := powerList(pp["power"]); len(powers) > 0 {
		add("Powers (nearby)", strings.Join(powers, ", "), "pp")
	}
	add("PowerPlay", pp.Str("powerplay_state"), "pp")
	if progress, ok := pp.Num("control_progress"); ok {
		add("Ctrl-Progress", Percent(progress, 1), "pp")
	}
	if underm, ok := pp.Num("undermining"); ok && underm >= 0 {
		add("Undermining", Population(int64(underm)), pick(underm != 0, "warn", "neut"))
	}
	if reinf, ok := pp.Num("reinforcement"); ok && reinf >= 0 {
		add("Reinforcement", Population(int64(reinf)), pick(reinf != 0, "ok", "neut"))
	}
	return chips
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// powerList はパワーの一覧を取り出す。値は配列かJSON文字列。
func powerList(v any) []string {
	switch t := v.(type) {
	case []any:
		return Row{"p": t}.Strings("p")
	case string:
		if t == "" {
			return nil
		}
		var list []any
		if err := json.Unmarshal([]byte(t), &list); err == nil {
			return Row{"p": list}.Strings("p")
		}
		return []string{t}
	default:
		return nil
	}
}

func securityClass(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "high":
		return "ok"
	case "medium":
		return "info"
	case "low":
		return "warn"
	case "anarchy":
		return "red"
	default:
		return "neut"
	}
}

func governmentClass(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "corporate", "cooperative":
		return "sky"
	case "democracy", "confederacy":
		return "info"
	case "dictatorship", "anarchy", "prison colony":
		return "red"
	case "patronage", "feudal":
		return "vio"
	case "communism":
		return "warn"
	default:
		return "neut"
	}
}

func systemFactionTable(factions []Row) *Table {
	t := &Table{
		Columns: []Column{
			{Label: "#", Pinned: true},
			{Label: "Name"},
			{Label: "Allegiance"},
			{Label: "Government"},
			{Label: "State"},
			{Label: "Influence", Numeric: true},
			{Label: "Active States"},
			{Label: "Pending"},
			{Label: "Recovering"},
		},
		Empty: "No minor factions found.",
	}
	for i, f := range sortByInfluence(factions, "influence") {
		government := ""
		if g := f.Str("government"); g != "" {
			government = Government(g)
		}
		state := f.Str("state")
		if blankState(state) {
			state = ""
		}
		active := StateList(f["active_states"])
		pending := StateList(f["pending_states"])
		recovering := StateList(f["recovering_states"])
		influence := f.Float("influence")
		t.Rows = append(t.Rows, []Cell{
			{Text: fmt.Sprint(i + 1)},
			{Text: f.Str("name")},
			{Text: f.Str("allegiance")},
			{Text: government},
			{Text: StateLabel(state), Style: StateStyle(state)},
			{Text: Percent(influence, 2), Value: influence, Numeric: true},
			{Text: StatesLabel(active), Style: StatesStyle(active)},
			{Text: StatesLabel(pending), Style: StatesStyle(pending)},
			{Text: StatesLabel(recovering), Style: StatesStyle(recovering)},
		})
	}
	return t
}

var conflictTypeLabels = map[string]string{
	"war":      "⚔️ War",
	"civilwar": "🏛 Civil War",
	"election": "🗳 Election",
}

var conflictTypeColors = map[string]string{
	"war":      "#c0392b",
	"civilwar": "#e67e22",
	"election": "#3498db",
}

var conflictStatusColors = map[string]string{
	"active":  "#065f46",
	"pending": "#92400e",
	"ended":   "#374151",
}

const (
	conflictDefaultColor = "#374151"
	conflictLeadColor    = "#065f46"
	conflictTrailColor   = "#7f1d1d"
	conflictTieColor     = "#a16207"
)

// ConflictTable は紛争の一覧を組み立てる。
// 勝利日数で優勢の側を緑、劣勢の側を赤、同数（1日以上）の場合は両方を黄色にする。
func ConflictTable(conflicts []Row) *Table {
	if len(conflicts) == 0 {
		return nil
	}
	t := &Table{
		Title: "Conflicts",
		Columns: []Column{
			{Label: "Type"},
			{Label: "Status"},
			{Label: "Faction 1"},
			{Label: "Stake 1"},
			{Label: "Faction 2"},
			{Label: "Stake 2"},
			{Label: "Won D1", Numeric: true},
			{Label: "Won D2", Numeric: true},
		},
	}
	for _, c := range conflicts {
		rawType := strings.ToLower(c.Str("war_type"))
		typeLabel, ok := conflictTypeLabels[rawType]
		if !ok {
			typeLabel = "-"
			if rawType != "" {
				typeLabel = title(rawType)
			}
		}
		typeColor, ok := conflictTypeColors[rawType]
		if !ok {
			typeColor = conflictDefaultColor
		}

		status := orDash(c.Str("status"))
		statusColor, ok := conflictStatusColors[strings.ToLower(status)]
		if !ok {
			statusColor = conflictDefaultColor
		}

		d1, d2 := c.Int("won_days1"), c.Int("won_days2")
		var style1, style2 string
		switch {
		case d1 == 0 && d2 == 0:
		case d1 > d2:
			style1, style2 = colorStyle(conflictLeadColor), colorStyle(conflictTrailColor)
		case d2 > d1:
			style1, style2 = colorStyle(conflictTrailColor), colorStyle(conflictLeadColor)
		default:
			style1, style2 = colorStyle(conflictTieColor), colorStyle(conflictTieColor)
		}

		t.Rows = append(t.Rows, []Cell{
			{Text: typeLabel, Style: colorStyle(typeColor)},
			{Text: status, Style: colorStyle(statusColor)},
			{Text: orDash(c.Str("faction1")), Style: style1},
			{Text: orDash(c.Str("stake1")), Style: "opacity:.9;"},
			{Text: orDash(c.Str("faction2")), Style: style2},
			{Text: orDash(c.Str("stake2")), Style: "opacity:.9;"},
			{Text: fmt.Sprint(d1), Value: float64(d1), Numeric: true},
			{Text: fmt.Sprint(d2), Value: float64(d2), Numeric: true},
		})
	}
	return t
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
