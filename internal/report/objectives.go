package report

import "time"

// ObjectiveTypes は目標の種類。
var ObjectiveTypes = []string{
	"recon", "win_war", "draw_war", "win_election", "draw_election",
	"boost", "expand", "reduce", "retreat", "equalise",
}

// TargetTypes は達成条件の種類。
var TargetTypes = []string{
	"visit", "inf", "bv", "cb", "expl", "trade_prof", "bm_prof",
	"ground_cz", "space_cz", "murder", "mission_fail",
}

// ObjectiveStatus は終了日が now より後なら Active、それ以外は Expired を返す。
// 終了日は日付のみ、または日時のどちらの形式でもよい。
func ObjectiveStatus(endDate string, now time.Time) string {
	end, ok := parseTimestamp(endDate)
	if !ok {
		return "Expired"
	}
	if end.After(now) {
		return "Active"
	}
	return "Expired"
}
