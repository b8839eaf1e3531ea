package report

import (
	"math"
	"strings"
)

const (
	colCmdr   = "Cmdr."
	colSqRank = "Sq.-Rank"
	colBuy    = "Buy (Cr.)"
	colSell   = "Sell (Cr.)"
	colProfit = "Profit (Cr.)"
)

var leaderboardSpec = Spec{
	Rename: map[string]string{
		"cmdr":               colCmdr,
		"squadron_rank":      colSqRank,
		"rank":               colSqRank,
		"total_buy":          colBuy,
		"total_sell":         colSell,
		"profit":             colProfit,
		"profitability":      "Profit (%)",
		"bounty_vouchers":    "BVs (Cr.)",
		"combat_bonds":       "CBs (Cr.)",
		"exploration_sales":  "Expo. (Cr.)",
		"missions_completed": "M.compl.",
		"missions_failed":    "M.failed",
		"influence_eic":      "Inf.-EIC",
		"total_quantity":     "Q. (t)",
		"total_volume":       "Vol. (Cr.)",
		"bounty_fines":       "Fines (Cr.)",
	},
	Order: []string{
		NoColumn, colCmdr, colSqRank, colBuy, colSell, colProfit, "Profit (%)",
		"Vol. (Cr.)", "Q. (t)", "BVs (Cr.)", "CBs (Cr.)", "Expo. (Cr.)", "M.compl.", "M.failed",
		"Inf.-EIC", "Fines (Cr.)",
	},
	Text:     []string{colCmdr, colSqRank},
	Pinned:   []string{colCmdr, colSqRank},
	Numbered: true,
	FillZero: true,
}

// Metric はグラフにできる列。
type Metric struct {
	Column string
	Title  string
}

// LeaderboardMetrics は円グラフで選べる列。
var LeaderboardMetrics = []Metric{
	{"M.compl.", "Missions Completed"},
	{"M.failed", "Missions Failed"},
	{"Inf.-EIC", "Influence (East India Company)"},
	{colBuy, "Total Buy"},
	{colSell, "Total Sell"},
	{colProfit, "Profit"},
	{"Vol. (Cr.)", "Market Volume"},
	{"Q. (t)", "Market Quantity"},
	{"BVs (Cr.)", "Bounty Vouchers"},
	{"CBs (Cr.)", "Combat Bonds"},
	{"Expo. (Cr.)", "Exploration Sales"},
	{"Fines (Cr.)", "Bounty Fines"},
}

// SelectMetric はcolumnに一致する指標を返す。一致しない場合は先頭の指標。
func SelectMetric(column string) Metric {
	for _, m := range LeaderboardMetrics {
		if m.Column == column {
			return m
		}
	}
	return LeaderboardMetrics[0]
}

// Leaderboard は summary/leaderboard の応答から表を組み立てる。
// 飛行隊ランクが0または欠損の場合は n/a と表示する。
func Leaderboard(rows []Row) *Table {
	t := Build(rows, leaderboardSpec)
	t.Title = "Leaderboard"
	t.Empty = "No Leaderboard-Data found."
	if i := t.ColumnIndex(colSqRank); i >= 0 {
		for _, cells := range t.Rows {
			if s := strings.TrimSpace(cells[i].Text); s == "" || s == "0" {
				cells[i].Text = "n/a"
			}
		}
	}
	return t
}

// ColumnShares はcolumnの値をコマンダーごとの割合にする。名前が空の行と0以下の値は除く。
func ColumnShares(t *Table, nameColumn, column string) []Share {
	ni, vi := t.ColumnIndex(nameColumn), t.ColumnIndex(column)
	if ni < 0 || vi < 0 {
		return nil
	}
	labels := make([]string, 0, len(t.Rows))
	values := make([]float64, 0, len(t.Rows))
	for _, cells := range t.Rows {
		labels = append(labels, strings.TrimSpace(cells[ni].Text))
		values = append(values, cells[vi].Value)
	}
	return Shares(labels, values)
}

// MetricShares はリーダーボードの指標の列をコマンダーごとの割合にする。
func MetricShares(t *Table, m Metric) []Share {
	return ColumnShares(t, colCmdr, m.Column)
}

// TradeBar は売買と利益の棒グラフの1行。Pct はグラフ内の最大絶対値に対する割合（0から100）。
type TradeBar struct {
	Cmdr      string
	Buy       float64
	Sell      float64
	Profit    float64
	BuyPct    float64
	SellPct   float64
	ProfitPct float64
}

// TradeBars は購入額か売却額が正、または利益が0でないコマンダーの棒グラフを返す。
func TradeBars(t *Table) []TradeBar {
	ci := t.ColumnIndex(colCmdr)
	bi, si, pi := t.ColumnIndex(colBuy), t.ColumnIndex(colSell), t.ColumnIndex(colProfit)
	if ci < 0 || bi < 0 || si < 0 || pi < 0 {
		return nil
	}

	var bars []TradeBar
	var peak float64
	for _, cells := range t.Rows {
		b := TradeBar{
			Cmdr:   cells[ci].Text,
			Buy:    cells[bi].Value,
			Sell:   cells[si].Value,
			Profit: cells[pi].Value,
		}
		if b.Buy <= 0 && b.Sell <= 0 && b.Profit == 0 {
			continue
		}
		peak = math.Max(peak, math.Max(math.Abs(b.Buy), math.Max(math.Abs(b.Sell), math.Abs(b.Profit))))
		bars = append(bars, b)
	}
	for i := range bars {
		bars[i].BuyPct = math.Abs(bars[i].Buy) / peak * 100
		bars[i].SellPct = math.Abs(bars[i].Sell) / peak * 100
		bars[i].ProfitPct = math.Abs(bars[i].Profit) / peak * 100
	}
	return bars
}
