package report

import (
	"fmt"
	"sort"
	"strings"
)

// FSDJumpFilter は24時間レポートの絞り込み条件。空の項目は全件を表す。
type FSDJumpFilter struct {
	System     string
	Faction    string
	State      string
	Pending    string
	Recovering string
}

// FSDJumpOptions は応答から集めた絞り込みの選択肢。
type FSDJumpOptions struct {
	Systems    []string
	Factions   []string
	States     []string
	Pending    []string
	Recovering []string
}

// FSDJumpSystem は1システム分の表示内容。
type FSDJumpSystem struct {
	Name          string
	SystemAddress string
	Timestamp     string
	Factions      *Table
}

// FSDJumpReport は fsdjump-factions ページの表示内容。
type FSDJumpReport struct {
	Options FSDJumpOptions
	Systems []FSDJumpSystem
	// Empty は表示するシステムがない場合のメッセージ。
	Empty string
}

// FSDJump は fsdjump-factions の応答を絞り込む。全ての条件に一致するシステムだけを残す。
func FSDJump(entries []Row, filter FSDJumpFilter) *FSDJumpReport {
	rep := &FSDJumpReport{Options: fsdJumpOptions(entries)}
	if len(entries) == 0 {
		rep.Empty = "No data found."
		return rep
	}

	for _, e := range entries {
		if !fsdJumpMatches(e, filter) {
			continue
		}
		name := e.Str("StarSystem")
		if name == "" {
			name = "Unknown"
		}
		sys := FSDJumpSystem{
			Name:          name,
			SystemAddress: e.Str("SystemAddress"),
			Timestamp:     e.Str("Timestamp"),
			Factions:      fsdJumpFactionTable(e.List("Factions")),
		}
		rep.Systems = append(rep.Systems, sys)
	}
	if len(rep.Systems) == 0 {
		rep.Empty = "No systems match the filter."
	}
	return rep
}

func fsdJumpOptions(entries []Row) FSDJumpOptions {
	systems, factions, states, pending, recovering := map[string]bool{}, map[string]bool{}, map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Str("StarSystem")
		if name == "" {
			name = "Unknown"
		}
		systems[name] = true
		for _, f := range e.List("Factions") {
			factions[f.Str("Name")] = true
			if s := f.Str("FactionState"); !blankState(s) {
				states[s] = true
			}
			for _, s := range stateNamesOf(f.List("PendingStates")) {
				pending[s] = true
			}
			for _, s := range stateNamesOf(f.List("RecoveringStates")) {
				recovering[s] = true
			}
		}
	}
	return FSDJumpOptions{
		Systems:    sortedKeys(systems),
		Factions:   sortedKeys(factions),
		States:     sortedKeys(states),
		Pending:    sortedKeys(pending),
		Recovering: sortedKeys(recovering),
	}
}

func fsdJumpMatches(e Row, f FSDJumpFilter) bool {
	if f.System != "" && e.Str("StarSystem") != f.System {
		return false
	}
	factions := e.List("Factions")
	anyFaction := func(match func(Row) bool) bool {
		for _, fac := range factions {
			if match(fac) {
				return true
			}
		}
		return false
	}
	if f.Faction != "" && !anyFaction(func(fac Row) bool { return fac.Str("Name") == f.Faction }) {
		return false
	}
	if f.State != "" && !anyFaction(func(fac Row) bool { return fac.Str("FactionState") == f.State }) {
		return false
	}
	if f.Pending != "" && !anyFaction(func(fac Row) bool {
		return containsString(stateNamesOf(fac.List("PendingStates")), f.Pending)
	}) {
		return false
	}
	if f.Recovering != "" && !anyFaction(func(fac Row) bool {
		return containsString(stateNamesOf(fac.List("RecoveringStates")), f.Recovering)
	}) {
		return false
	}
	return true
}

func fsdJumpFactionTable(factions []Row) *Table {
	t := &Table{
		Columns: []Column{
			{Label: "#", Pinned: true},
			{Label: "Name"},
			{Label: "Allegiance"},
			{Label: "Government"},
			{Label: "State"},
			{Label: "Influence", Numeric: true},
			{Label: "Pending"},
			{Label: "Recovering"},
		},
		Empty: "No minor factions found.",
	}
	sorted := sortByInfluence(factions, "Influence")
	for i, f := range sorted {
		state := f.Str("FactionState")
		if blankState(state) {
			state = ""
		}
		pending := stateNamesOf(f.List("PendingStates"))
		recovering := stateNamesOf(f.List("RecoveringStates"))
		influence := f.Float("Influence")
		t.Rows = append(t.Rows, []Cell{
			{Text: fmt.Sprint(i + 1)},
			{Text: f.Str("Name")},
			{Text: f.Str("Allegiance")},
			{Text: f.Str("Government"), Style: colorStyle(GovernmentColor(f.Str("Government")))},
			{Text: state, Style: StateStyle(state)},
			{Text: Percent(influence, 2), Value: influence, Numeric: true},
			{Text: strings.Join(pending, ", "), Style: firstStateStyle(pending)},
			{Text: strings.Join(recovering, ", "), Style: firstStateStyle(recovering)},
		})
	}
	return t
}

// sortByInfluence は影響力の降順に並べ替えたコピーを返す。
func sortByInfluence(factions []Row, key string) []Row {
	sorted := append([]Row(nil), factions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Float(key) > sorted[j].Float(key)
	})
	return sorted
}

// firstStateStyle は先頭の状態の色でセル全体を塗る。
func firstStateStyle(states []string) string {
	if len(states) == 0 {
		return ""
	}
	return StateStyle(states[0])
}

func colorStyle(color string) string {
	if color == "" {
		return ""
	}
	return fmt.Sprintf("background-color:%s;color:#fff;", color)
}

// stateNamesOf は [{"State": ...}] から状態名を取り出す。
func stateNamesOf(items []Row) []string {
	var out []string
	for _, item := range items {
		if s := item.Str("State"); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
