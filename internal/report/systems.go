package report

import (
	"fmt"
	"sort"
	"strings"
)

// ConflictStatus は systems/list の紛争状態を表示用の文字列にする。
func ConflictStatus(status, details string) string {
	switch status {
	case "":
		return "❓ No Data"
	case "peaceful":
		return "✅ Peaceful"
	case "war", "civil_war", "election", "multiple":
		if details != "" {
			return "⚔️ " + details
		}
		return "⚔️ " + title(strings.ReplaceAll(status, "_", " "))
	default:
		return "❓ Unknown"
	}
}

// SystemsOverview は systems/list の応答から一覧表を組み立てる。
func SystemsOverview(data Row) *Table {
	t := &Table{
		Title: "Systems Overview",
		Columns: []Column{
			{Label: NoColumn, Pinned: true},
			{Label: "System", Pinned: true},
			{Label: "Controlling Faction"},
			{Label: "Active CMDRs", Numeric: true},
			{Label: "Has EDSM Data"},
			{Label: "Conflict Status"},
		},
		Empty: "No systems found with recent activity or EDSM data",
	}
	for i, s := range data.List("systems") {
		controlling := s.Str("controlling_faction")
		if controlling == "" {
			controlling = "Unknown"
		}
		edsm := "❌"
		if b, ok := s["has_edsm_data"].(bool); ok && b {
			edsm = "✅"
		}
		active := s.Float("active_cmdrs")
		t.Rows = append(t.Rows, []Cell{
			{Text: fmt.Sprint(i + 1)},
			{Text: s.Str("system_name")},
			{Text: controlling},
			numberCell(active),
			{Text: edsm},
			{Text: ConflictStatus(s.Str("conflict_status"), s.Str("conflict_details"))},
		})
	}
	return t
}

// FactionLine は勢力の1行要約。
type FactionLine struct {
	Name      string
	Influence string
	States    string
}

// ActivityItem は活動の要約の1項目。
type ActivityItem struct {
	Label string
	Value string
}

// ConflictUpdate は最後に検出された紛争の更新。
type ConflictUpdate struct {
	Cmdr      string
	Timestamp string
	Lines     []string
}

// SystemDetail は systems/<name>/status の表示内容。
type SystemDetail struct {
	Name string
	// HasEDSM はEDSMの勢力データがあるかどうか。
	HasEDSM            bool
	ControllingFaction string
	LastUpdated        string
	InConflict         []FactionLine
	TopFactions        []FactionLine
	// Activity は活動の要約。活動したコマンダーがいない場合は空。
	Activity []ActivityItem
	Conflict *ConflictUpdate
	Cmdrs    *Table
	// Logs はタブごとの活動記録。
	Logs []*Table
}

// conflictStates は紛争とみなす状態（小文字）。
var conflictStates = map[string]bool{"war": true, "civil war": true, "civilwar": true, "election": true}

// SystemDetails は systems/<name>/status の応答を組み立てる。
func SystemDetails(status Row) *SystemDetail {
	d := &SystemDetail{Name: status.Str("system_name")}

	edsm := status.Object("edsm_data")
	if factions := edsm.List("factions"); len(factions) > 0 {
		d.HasEDSM = true
		d.ControllingFaction = edsm.Object("controlling_faction").Str("name")
		if d.ControllingFaction == "" {
			d.ControllingFaction = "Unknown"
		}
		d.LastUpdated = edsm.Str("last_updated")
		if d.LastUpdated == "" {
			d.LastUpdated = "Never"
		}
		for _, f := range factions {
			states := edsmStates(f)
			for _, s := range states {
				if conflictStates[strings.ToLower(s)] {
					d.InConflict = append(d.InConflict, FactionLine{
						Name:      f.Str("name"),
						Influence: influenceOrUnknown(f.Float("influence")),
						States:    strings.Join(states, ", "),
					})
					break
				}
			}
		}
		top := sortByInfluence(factions, "influence")
		if len(top) > 5 {
			top = top[:5]
		}
		for _, f := range top {
			main := edsmMainState(f)
			if main == "" {
				main = "None"
			}
			d.TopFactions = append(d.TopFactions, FactionLine{
				Name:      f.Str("name"),
				Influence: influenceOrUnknown(f.Float("influence")),
				States:    main,
			})
		}
	}

	summary := status.Object("summary")
	activity := status.Object("activity_data")
	if summary.Float("total_cmdrs") > 0 {
		d.Activity = []ActivityItem{
			{"Active Commanders", Number(summary.Float("total_cmdrs"))},
			{"Total Credits Earned", Number(summary.Float("total_credits")) + " Cr"},
			{"Missions Completed", Number(summary.Float("total_missions"))},
			{"Combat Bonds", Number(summary.Float("total_combat_bonds")) + " Cr"},
			{"Bounty Vouchers", Number(summary.Float("total_bounty_vouchers")) + " Cr"},
			{"Exploration Sales", Number(summary.Float("total_exploration")) + " Cr"},
		}
		if detected := activity.List("conflicts_detected"); len(detected) > 0 {
			latest := detected[0]
			u := &ConflictUpdate{Cmdr: latest.Str("cmdr"), Timestamp: latest.Str("timestamp")}
			for _, c := range latest.List("conflicts") {
				f1, f2 := c.Object("Faction1"), c.Object("Faction2")
				warType := c.Str("WarType")
				if warType == "" {
					warType = "Unknown"
				}
				u.Lines = append(u.Lines, fmt.Sprintf("%s: %s vs %s (Won Days: %d - %d)",
					warType, f1.Str("Name"), f2.Str("Name"), f1.Int("WonDays"), f2.Int("WonDays")))
			}
			d.Conflict = u
		}
	}

	d.Cmdrs = systemCmdrTable(status.Object("cmdr_summary"))
	d.Logs = activityLogs(activity)
	return d
}

func influenceOrUnknown(v float64) string {
	if v == 0 {
		return "Unknown"
	}
	return Percent(v, 1)
}

// edsmMainState は勢力の主状態を返す。値は文字列か {"state": ...} のどちらか。
func edsmMainState(f Row) string {
	if obj := f.Object("state"); obj != nil {
		if s := obj.Str("state"); s != "" {
			return s
		}
		return obj.Str("name")
	}
	return f.Str("state")
}

// edsmStates は有効な状態と主状態を重複なしで返す。
func edsmStates(f Row) []string {
	var states []string
	if items, ok := f["active_states"].([]any); ok {
		for _, item := range items {
			var name string
			if m, ok := item.(map[string]any); ok {
				name = Row(m).Str("state")
			} else {
				name = stringify(item)
			}
			if name != "" {
				states = append(states, name)
			}
		}
	}
	if main := edsmMainState(f); main != "" && !containsString(states, main) {
		states = append(states, main)
	}
	return states
}

func systemCmdrTable(summary Row) *Table {
	if len(summary) == 0 {
		return nil
	}
	t := &Table{
		Title: "Commander Activity Details",
		Columns: []Column{
			{Label: NoColumn, Pinned: true},
			{Label: "Commander", Pinned: true},
			{Label: "Missions", Numeric: true},
			{Label: "Combat Bonds", Numeric: true},
			{Label: "Bounty Vouchers", Numeric: true},
			{Label: "Exploration", Numeric: true},
			{Label: "Market Trans.", Numeric: true},
			{Label: "Total Credits", Numeric: true},
		},
	}
	names := summary.Keys()
	sort.SliceStable(names, func(i, j int) bool {
		return summary.Object(names[i]).Float("total_credits") > summary.Object(names[j]).Float("total_credits")
	})
	for i, name := range names {
		c := summary.Object(name)
		t.Rows = append(t.Rows, []Cell{
			{Text: fmt.Sprint(i + 1)},
			{Text: name},
			numberCell(c.Float("missions_completed")),
			creditCell(c.Float("combat_bonds")),
			creditCell(c.Float("bounty_vouchers")),
			creditCell(c.Float("exploration_earnings")),
			numberCell(c.Float("market_transactions")),
			creditCell(c.Float("total_credits")),
		})
	}
	return t
}

func creditCell(v float64) Cell {
	return Cell{Text: Number(v) + " Cr", Value: v, Numeric: true}
}

// activityLog は活動記録のタブ。
type activityLog struct {
	title  string
	key    string
	empty  string
	rename map[string]string
	credit string
}

var activityLogTabs = []activityLog{
	{
		title:  "Missions",
		key:    "missions_completed",
		empty:  "No missions completed in this period",
		rename: map[string]string{"cmdr": "Commander", "awarding_faction": "Faction", "mission_name": "Mission", "reward": "Reward", "timestamp": "Time"},
		credit: "Reward",
	},
	{
		title:  "Combat",
		key:    "combat_bonds",
		empty:  "No combat bonds redeemed in this period",
		rename: map[string]string{"cmdr": "Commander", "awarding_faction": "For Faction", "victim_faction": "Against Faction", "reward": "Bond Value", "timestamp": "Time"},
		credit: "Bond Value",
	},
	{
		title:  "Bounties",
		key:    "bounty_vouchers",
		empty:  "No bounty vouchers redeemed in this period",
		rename: map[string]string{"cmdr": "Commander", "faction": "Faction", "amount": "Amount", "timestamp": "Time"},
		credit: "Amount",
	},
	{
		title:  "Exploration",
		key:    "exploration_sales",
		empty:  "No exploration data sold in this period",
		rename: map[string]string{"cmdr": "Commander", "earnings": "Earnings", "timestamp": "Time"},
		credit: "Earnings",
	},
}

// activityLogs は活動記録のタブを組み立てる。記録が1件もない場合はnil。
func activityLogs(activity Row) []*Table {
	var found bool
	for _, tab := range activityLogTabs {
		if len(activity.List(tab.key)) > 0 {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	tables := make([]*Table, 0, len(activityLogTabs))
	for _, tab := range activityLogTabs {
		t := Build(activity.List(tab.key), Spec{Rename: tab.rename, Raw: true})
		if i := t.ColumnIndex(tab.credit); i >= 0 {
			t.Columns[i].Numeric = true
			for _, cells := range t.Rows {
				v, _ := toFloat(cells[i].Text)
				cells[i] = creditCell(v)
			}
		}
		t.Title = tab.title
		t.Empty = tab.empty
		tables = append(tables, t)
	}
	return tables
}
