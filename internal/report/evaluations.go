package report

// Section は評価ページの集計区分。Path は summary/ 以下のパス。
type Section struct {
	Label string
	Path  string
}

// EvaluationSections は評価ページに表示する区分。
var EvaluationSections = []Section{
	{"Market Events", "market-events"},
	{"Missions Completed", "missions-completed"},
	{"Missions Failed", "missions-failed"},
	{"Influence by Faction", "influence-by-faction"},
	{"Influence EIC", "influence-eic"},
	{"Bounty Vouchers", "bounty-vouchers"},
	{"Combat Bonds", "combat-bonds"},
	{"Exploration Sales", "exploration-sales"},
	{"Bounty Fines", "bounty-fines"},
}

var evaluationRename = map[string]string{
	"cmdr":                     colCmdr,
	"missions_completed":       "Missions completed",
	"missions_failed":          "Missions failed",
	"faction_name":             "Faction",
	"influence":                "Influence",
	"total_buy":                colBuy,
	"total_sell":               colSell,
	"total_transaction_volume": "Total Volume (Cr.)",
	"total_trade_quantity":     "Total Quantity (tons)",
	"bounty_vouchers":          "Bounty Vouchers (Cr.)",
	"combat_bonds":             "Combat Bonds (Cr.)",
	"total_exploration_sales":  "Exploration Sales (Cr.)",
	"bounty_fines":             "Bounty Fines (Cr.)",
}

// SectionPath は区分のAPIパスを返す。top5 の場合は上位5件の集計になる。
func SectionPath(s Section, top5 bool) string {
	if top5 {
		return "summary/top5/" + s.Path
	}
	return "summary/" + s.Path
}

// SquadronRanks は table/cmdr の応答からコマンダー名と飛行隊ランクの対応を作る。
func SquadronRanks(cmdrs []Row) map[string]string {
	ranks := make(map[string]string, len(cmdrs))
	for _, r := range cmdrs {
		if name := r.Str("name"); name != "" {
			ranks[name] = r.Str("squadron_rank")
		}
	}
	return ranks
}

// Evaluation は1区分の表を組み立てる。Cmdr. 列の直後に飛行隊ランクの列を挿入する。
func Evaluation(section Section, rows []Row, ranks map[string]string) *Table {
	t := Build(rows, Spec{
		Rename:   evaluationRename,
		Text:     []string{colCmdr, "Faction"},
		Pinned:   []string{colCmdr},
		Numbered: true,
	})
	t.Title = section.Label

	ci := t.ColumnIndex(colCmdr)
	if ci < 0 {
		return t
	}
	// ColumnKeys はアルファベット順に並べるため、Cmdr. を No. の直後に移す
	moveColumn(t, ci, 1)
	ci = 1

	cols := make([]Column, 0, len(t.Columns)+1)
	cols = append(cols, t.Columns[:ci+1]...)
	cols = append(cols, Column{Label: colSqRank, Pinned: true})
	cols = append(cols, t.Columns[ci+1:]...)
	t.Columns = cols

	for i, cells := range t.Rows {
		rank := ranks[cells[ci].Text]
		row := make([]Cell, 0, len(cells)+1)
		row = append(row, cells[:ci+1]...)
		row = append(row, Cell{Text: rank})
		row = append(row, cells[ci+1:]...)
		t.Rows[i] = row
	}
	return t
}

// moveColumn はfromの列をtoの位置に移す。
func moveColumn(t *Table, from, to int) {
	if from == to {
		return
	}
	t.Columns = moveItem(t.Columns, from, to)
	for i := range t.Rows {
		t.Rows[i] = moveItem(t.Rows[i], from, to)
	}
}

func moveItem[T any](items []T, from, to int) []T {
	item := items[from]
	out := make([]T, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}
