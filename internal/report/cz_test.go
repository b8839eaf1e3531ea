package report

import (
	"reflect"
	"testing"
)

func TestCZ(t *testing.T) {
	t.Parallel()

	records := []any{
		map[string]any{"starsystem": "Sol", "cz_type": "low", "cz_count": 2.0, "cmdr": "Alpha", "settlement": "Base A"},
		map[string]any{"starsystem": "Sol", "cz_type": "HIGH", "cz_count": 1.0, "cmdr": "Alpha", "settlement": "Base B"},
		map[string]any{"starsystem": "Sol", "cz_type": "Medium", "cz_count": 3.0, "cmdr": "Beta", "settlement": "Base A"},
		map[string]any{"starsystem": "Achenar", "cz_type": "low", "cz_count": 5.0, "cmdr": "Gamma", "settlement": "Outpost"},
	}

	t.Run("配列の応答は選択したシステムだけを集計すること", func(t *testing.T) {
		t.Parallel()

		rep := CZ(SpaceCZ, records, "Sol")
		if !reflect.DeepEqual(rep.Systems, []string{"Achenar", "Sol"}) {
			t.Errorf("Systems = %v", rep.Systems)
		}
		want := []CZCount{{"Low", 2}, {"Medium", 3}, {"High", 1}}
		if !reflect.DeepEqual(rep.Counts, want) {
			t.Errorf("Counts = %v, want %v", rep.Counts, want)
		}
		if rep.Total != 6 {
			t.Errorf("Total = %v, want 6", rep.Total)
		}
		if rep.Cmdrs.Len() != 2 {
			t.Fatalf("Cmdrs = %d行, want 2", rep.Cmdrs.Len())
		}
		if c, _ := rep.Cmdrs.Cell(0, "Total"); c.Value != 3 {
			t.Errorf("AlphaのTotal = %v, want 3", c.Value)
		}
		if rep.Settlements != nil {
			t.Error("宇宙の戦闘区域に居住地の表がある")
		}
	})

	t.Run("システム未指定の場合は先頭のシステムになること", func(t *testing.T) {
		t.Parallel()

		rep := CZ(GroundCZ, records, "")
		if rep.System != "Achenar" {
			t.Errorf("System = %q, want Achenar", rep.System)
		}
	})

	t.Run("地上の戦闘区域は居住地ごとに合計すること", func(t *testing.T) {
		t.Parallel()

		rep := CZ(GroundCZ, records, "Sol")
		if rep.Settlements.Len() != 2 {
			t.Fatalf("Settlements = %d行, want 2", rep.Settlements.Len())
		}
		if c, _ := rep.Settlements.Cell(0, "CZs"); c.Value != 5 {
			t.Errorf("Base A = %v, want 5", c.Value)
		}
	})

	t.Run("オブジェクトの応答は集計済みの値を使うこと", func(t *testing.T) {
		t.Parallel()

		data := map[string]any{
			"summary": map[string]any{"low": 1.0, "medium": 2.0, "high": 3.0, "system": "Lave"},
			"cmdr_distribution": []any{
				map[string]any{"cmdr": "Alpha", "low": 1.0, "medium": 2.0, "high": 3.0, "total": 6.0},
			},
			"settlements": []any{map[string]any{"settlement": "Dock", "czs": 4.0}},
		}
		rep := CZ(GroundCZ, data, "")
		if rep.System != "Lave" || rep.Total != 6 {
			t.Errorf("System = %q, Total = %v", rep.System, rep.Total)
		}
		if rep.Cmdrs.Len() != 1 || rep.Settlements.Len() != 1 {
			t.Errorf("Cmdrs = %d, Settlements = %d", rep.Cmdrs.Len(), rep.Settlements.Len())
		}
	})

	t.Run("空の応答はメッセージを返すこと", func(t *testing.T) {
		t.Parallel()

		for _, data := range []any{nil, []any{}, map[string]any{}} {
			rep := CZ(SpaceCZ, data, "")
			if rep.Empty != "No Space CZ data found" {
				t.Errorf("Empty = %q", rep.Empty)
			}
		}
		if rep := CZ(GroundCZ, nil, ""); rep.Empty != "No Ground CZ data found" {
			t.Errorf("Empty = %q", rep.Empty)
		}
	})

	t.Run("種類のパスとパース", func(t *testing.T) {
		t.Parallel()

		if ParseCZKind("ground").Path() != "syntheticgroundcz-summary" {
			t.Error("地上のパスが不正")
		}
		if ParseCZKind("bogus") != SpaceCZ {
			t.Error("不明な種類が宇宙にならない")
		}
	})
}
