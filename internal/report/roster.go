package report

// cmdrColumns はコマンダー一覧の列。APIのキーと列名の組。
var cmdrColumns = []struct{ key, label string }{
	{"name", "Cmdr"},
	{"squadron_name", "Squadron"},
	{"squadron_rank", "Sq.-Rank"},
	{"rank_combat", "Comb.-Rank"},
	{"rank_trade", "Trade-Rank"},
	{"rank_explore", "Expl.-Rank"},
	{"rank_cqc", "CQC-Rank"},
	{"rank_empire", "Empire-Rank"},
	{"rank_federation", "Fed.-Rank"},
	{"rank_power", "Power"},
}

// Cmdrs は table/cmdr の応答からコマンダー一覧の表を組み立てる。
func Cmdrs(rows []Row) *Table {
	rename := make(map[string]string, len(cmdrColumns))
	order := make([]string, 0, len(cmdrColumns))
	for _, c := range cmdrColumns {
		rename[c.key] = c.label
		order = append(order, c.label)
	}
	t := Build(rows, Spec{Rename: rename, Order: order, Text: order, Pinned: []string{"Cmdr"}})
	// 欠けている列も空欄で表示する
	for _, label := range order {
		if t.ColumnIndex(label) < 0 {
			t.Columns = append(t.Columns, Column{Label: label})
			for i := range t.Rows {
				t.Rows[i] = append(t.Rows[i], Cell{})
			}
		}
	}
	reorder(t, order)
	t.Title = "Cmdr Overview"
	t.Empty = "No Cmdr data found."
	return t
}

// reorder は列をorderの順に並べ替える。orderにない列は末尾に残す。
func reorder(t *Table, order []string) {
	for to, label := range order {
		if from := t.ColumnIndex(label); from >= 0 && from != to && to < len(t.Columns) {
			moveColumn(t, from, to)
		}
	}
}

var recruitsSpec = Spec{
	Rename: map[string]string{
		"bounty_claims":   "Bounty Claims (Cr.)",
		"bounty_fines":    "Bounty Fines (Cr.)",
		"combat_bonds":    "Combat Bonds (Cr.)",
		"commander":       colCmdr,
		"days_since_join": "Days since join",
		"exp_value":       "Exp. Value (Cr.)",
		"has_data":        "Has Data",
		"last_active":     "Last Active",
		"mission_count":   "# of Missions",
		"tonnage":         "Tonnage (t)",
	},
	Order: []string{
		NoColumn, colCmdr, "Has Data", "Last Active", "Days since join", "Tonnage (t)",
		"# of Missions", "Bounty Claims (Cr.)", "Exp. Value (Cr.)", "Combat Bonds (Cr.)",
		"Bounty Fines (Cr.)",
	},
	Text:     []string{colCmdr, "Has Data", "Last Active"},
	Pinned:   []string{colCmdr},
	Numbered: true,
	FillZero: true,
}

// Recruits は summary/recruits の応答から新人一覧の表を組み立てる。
func Recruits(rows []Row) *Table {
	t := Build(rows, recruitsSpec)
	t.Title = "Recruits Overview"
	t.Empty = "No Recruits-Data found."
	return t
}
