package report

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBuildTableView(t *testing.T) {
	t.Parallel()

	now := time.Date(3310, 5, 1, 15, 0, 0, 0, time.UTC)
	rows := []Row{
		{"cmdr": "Alpha", "event": "FSDJump", "tickid": "t1", "timestamp": "3310-05-01T10:00:00Z", "raw_json": `{"event":"FSDJump","StarSystem":"Sol"}`},
		{"cmdr": "Beta", "event": "Docked", "tickid": "t2", "timestamp": "3310-05-01T11:00:00", "raw_json": "not json"},
		{"cmdr": "Alpha", "event": "Docked", "tickid": "t2", "timestamp": "3310-04-30T23:59:59Z"},
	}

	t.Run("既定の期間は今日から明日まで", func(t *testing.T) {
		t.Parallel()

		f := DefaultEventFilter(now)
		if FormatDate(f.From) != "3310-05-01" || FormatDate(f.To) != "3310-05-02" {
			t.Errorf("From = %v, To = %v", f.From, f.To)
		}
	})

	t.Run("eventテーブルは絞り込みとraw_jsonの整形を行うこと", func(t *testing.T) {
		t.Parallel()

		view := BuildTableView("event", rows, DefaultEventFilter(now), 0)
		if view.Table.Len() != 2 {
			t.Fatalf("件数 = %d, want 2", view.Table.Len())
		}
		if !reflect.DeepEqual(view.Options.TickIDs, []string{"t2", "t1"}) {
			t.Errorf("TickIDs = %v, want 新しい順", view.Options.TickIDs)
		}
		if !strings.Contains(view.RawJSON, "\n  \"StarSystem\": \"Sol\"") {
			t.Errorf("RawJSON = %q", view.RawJSON)
		}
	})

	t.Run("解析できないraw_jsonはエラーメッセージになること", func(t *testing.T) {
		t.Parallel()

		view := BuildTableView("event", rows, EventFilter{Cmdr: "Beta"}, 0)
		if view.RawJSON != "" || view.RawJSONErr == "" {
			t.Errorf("RawJSON = %q, RawJSONErr = %q", view.RawJSON, view.RawJSONErr)
		}
	})

	t.Run("範囲外の行番号は先頭になること", func(t *testing.T) {
		t.Parallel()

		view := BuildTableView("event", rows, EventFilter{}, 99)
		if view.SelectedRow != 0 {
			t.Errorf("SelectedRow = %d, want 0", view.SelectedRow)
		}
	})

	t.Run("event以外のテーブルは絞り込まないこと", func(t *testing.T) {
		t.Parallel()

		view := BuildTableView("cmdr", rows, DefaultEventFilter(now), 0)
		if view.Table.Len() != 3 || view.Options != nil || view.RawJSON != "" {
			t.Errorf("view = %+v", view)
		}
	})

	t.Run("テーブル名の検証", func(t *testing.T) {
		t.Parallel()

		if !ValidTable("mission_completed_influence") || ValidTable("users") {
			t.Error("ValidTable() の判定が不正")
		}
	})

	t.Run("日付の解析", func(t *testing.T) {
		t.Parallel()

		fallback := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		if got := ParseDate("bogus", fallback); !got.Equal(fallback) {
			t.Errorf("ParseDate() = %v", got)
		}
		if got := ParseDate("3310-05-03", fallback); FormatDate(got) != "3310-05-03" {
			t.Errorf("ParseDate() = %v", got)
		}
	})
}

func TestObjectiveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(3310, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"3310-05-02":           "Active",
		"3310-05-01T13:00:00Z": "Active",
		"3310-05-01":           "Expired",
		"":                     "Expired",
	}
	for end, want := range tests {
		if got := ObjectiveStatus(end, now); got != want {
			t.Errorf("ObjectiveStatus(%q) = %q, want %q", end, got, want)
		}
	}
}

func TestPeriods(t *testing.T) {
	t.Parallel()

	if len(SummaryPeriods) != 10 || SummaryPeriods[0].Code != "ct" {
		t.Errorf("SummaryPeriods = %v", SummaryPeriods)
	}
	if ValidPeriod(VoucherPeriods, "ct") {
		t.Error("バウチャーの期間にctが含まれている")
	}
	codes := make([]string, 0, len(DiscordPeriods))
	for _, p := range DiscordPeriods {
		codes = append(codes, p.Code)
	}
	if !reflect.DeepEqual(codes, []string{"ld", "lw", "cm", "lm", "2m", "y", "all"}) {
		t.Errorf("DiscordPeriods = %v", codes)
	}
	if got := SelectPeriod(SummaryPeriods, "nope"); got.Code != "ct" {
		t.Errorf("SelectPeriod() = %v", got)
	}
	if got := SelectPeriod(SummaryPeriods, "lw"); got.Label != "Last Week" {
		t.Errorf("SelectPeriod() = %v", got)
	}
}
