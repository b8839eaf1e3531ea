// Package report はBGS APIの応答をダッシュボードの表示用データに変換する。
//
// 各ページの列名の変換、並び順、数値の書式、状態の色分けをここに集め、
// HTTPやテンプレートには依存しない純粋な関数として提供する。
package report

// Period は集計期間。Code はAPIの period パラメータの値。
type Period struct {
	Code  string
	Label string
}

var (
	periodCurrentTick = Period{"ct", "Current Tick (since last BGS tick)"}
	periodCurrentDay  = Period{"cd", "Current Day (today)"}
	periodLastDay     = Period{"ld", "Last Day (yesterday)"}
	periodCurrentWeek = Period{"cw", "Current Week"}
	periodLastWeek    = Period{"lw", "Last Week"}
	periodCurrentMon  = Period{"cm", "Current Month"}
	periodLastMonth   = Period{"lm", "Last Month"}
	periodTwoMonths   = Period{"2m", "Last 2 Months"}
	periodYear        = Period{"y", "Current Year"}
	periodAll         = Period{"all", "Complete History"}
)

// SummaryPeriods はリーダーボードと評価ページで選べる期間。
var SummaryPeriods = []Period{
	periodCurrentTick,
	periodCurrentDay,
	periodLastDay,
	periodCurrentWeek,
	periodLastWeek,
	periodCurrentMon,
	periodLastMonth,
	periodTwoMonths,
	periodYear,
	periodAll,
}

// VoucherPeriods はバウンティバウチャーのページで選べる期間。ティック単位の集計はない。
var VoucherPeriods = []Period{
	{"cd", "Today"},
	{"ld", "Yesterday"},
	periodCurrentWeek,
	periodLastWeek,
	periodCurrentMon,
	periodLastMonth,
	periodTwoMonths,
	periodYear,
	{"all", "All Time"},
}

// DiscordPeriods はDiscordへの集計送信で選べる期間。
var DiscordPeriods = []Period{
	periodLastDay,
	periodLastWeek,
	periodCurrentMon,
	periodLastMonth,
	periodTwoMonths,
	periodYear,
	periodAll,
}

// SystemDetailPeriods はシステム詳細で選べる期間。
var SystemDetailPeriods = []Period{
	{"cd", "Current Day"},
	{"ld", "Last Day (Yesterday)"},
}

// SelectPeriod はcodeに一致する期間を返す。一致しない場合は先頭の期間を返す。
func SelectPeriod(periods []Period, code string) Period {
	for _, p := range periods {
		if p.Code == code {
			return p
		}
	}
	if len(periods) == 0 {
		return Period{}
	}
	return periods[0]
}

// ValidPeriod はcodeが選択肢に含まれるかどうかを返す。
func ValidPeriod(periods []Period, code string) bool {
	for _, p := range periods {
		if p.Code == code {
			return true
		}
	}
	return false
}
