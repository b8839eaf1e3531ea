package report

import "sort"

const (
	colVoucherCmdr    = "Cmdr"
	colVoucherSystem  = "Star System"
	colVoucherFaction = "Faction"
	colVoucherAmount  = "Voucher Amount"
)

var voucherSpec = Spec{
	Rename: map[string]string{
		"cmdr":          colVoucherCmdr,
		"squadron_rank": "Squadron Rank",
		"tickid":        "Tick ID",
		"timestamp":     "Timestamp",
		"system":        colVoucherSystem,
		"faction":       colVoucherFaction,
		"amount":        colVoucherAmount,
		"redeem_time":   "Redemption Time",
	},
	Order: []string{
		colVoucherCmdr, "Squadron Rank", colVoucherSystem, colVoucherFaction, colVoucherAmount,
		"Tick ID", "Timestamp", "Redemption Time",
	},
	Text: []string{
		colVoucherCmdr, "Squadron Rank", "Tick ID", "Timestamp", colVoucherSystem,
		colVoucherFaction, "Redemption Time",
	},
	Pinned: []string{colVoucherCmdr},
}

// VoucherFilter はバウチャー一覧の絞り込み条件。各項目は空の場合は絞り込まない。
type VoucherFilter struct {
	Cmdrs    []string
	Systems  []string
	Factions []string
}

// VoucherOptions は絞り込みの選択肢。
type VoucherOptions struct {
	Cmdrs    []string
	Systems  []string
	Factions []string
}

// VoucherReport はバウチャーページの表示内容。
type VoucherReport struct {
	Options VoucherOptions
	Table   *Table
	Total   float64
	Shares  []Share
}

// Vouchers は bounty-vouchers の応答を絞り込み、合計とコマンダーごとの割合を計算する。
func Vouchers(rows []Row, filter VoucherFilter) *VoucherReport {
	rep := &VoucherReport{
		Options: VoucherOptions{
			Cmdrs:    distinct(rows, "cmdr"),
			Systems:  distinct(rows, "system"),
			Factions: distinct(rows, "faction"),
		},
	}

	cmdrs, systems, factions := toSet(filter.Cmdrs), toSet(filter.Systems), toSet(filter.Factions)
	var filtered []Row
	for _, r := range rows {
		if !matchAny(cmdrs, r.Str("cmdr")) || !matchAny(systems, r.Str("system")) || !matchAny(factions, r.Str("faction")) {
			continue
		}
		filtered = append(filtered, r)
		rep.Total += r.Float("amount")
	}

	rep.Table = Build(filtered, voucherSpec)
	rep.Table.Title = "Voucher Redemptions"
	rep.Table.Empty = "No voucher data found."
	rep.Shares = ColumnShares(rep.Table, colVoucherCmdr, colVoucherAmount)
	return rep
}

func matchAny(set map[string]bool, v string) bool {
	return len(set) == 0 || set[v]
}

// distinct はキーの値を重複なしで昇順に返す。空の値は除く。
func distinct(rows []Row, key string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		v := r.Str(key)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
