package report

import (
	"testing"
)

func TestSystemQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query SystemQuery
		ready bool
		path  string
		enc   string
	}{
		{"条件なし", SystemQuery{}, false, "system-summary", ""},
		{"紛争のみは不可", SystemQuery{HasConflict: true}, false, "system-summary", "has_conflict=true"},
		{"勢力と紛争", SystemQuery{Faction: "Mother Gaia", HasConflict: true}, true, "system-summary", "faction=Mother+Gaia&has_conflict=true"},
		{"システム名のみ", SystemQuery{System: "HIP 1234"}, true, "system-summary/HIP%201234", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.query.Ready(); got != tt.ready {
				t.Errorf("Ready() = %v, want %v", got, tt.ready)
			}
			if got := tt.query.Path(); got != tt.path {
				t.Errorf("Path() = %q, want %q", got, tt.path)
			}
			if got := tt.query.Values().Encode(); got != tt.enc {
				t.Errorf("Values() = %q, want %q", got, tt.enc)
			}
		})
	}
}

func TestParseTooManySystems(t *testing.T) {
	t.Parallel()

	t.Run("システム一覧付きのエラーを判定できること", func(t *testing.T) {
		t.Parallel()

		got, ok := ParseTooManySystems([]byte(`{"error":"too many","systems":["Sol","Lave"],"count":142}`))
		if !ok {
			t.Fatal("判定できなかった")
		}
		if got.Count != 142 || len(got.Systems) != 2 || got.Systems[1] != "Lave" {
			t.Errorf("got = %+v", got)
		}
	})

	t.Run("一覧がないエラーは対象外であること", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{`{"error":"bad request"}`, `not json`, `{"systems":[]}`} {
			if _, ok := ParseTooManySystems([]byte(body)); ok {
				t.Errorf("%s が対象と判定された", body)
			}
		}
	})
}

func TestSystemInfos(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"system_info": map[string]any{
			"system_name":         "Sol",
			"controlling_faction": "Mother Gaia",
			"allegiance":          "Federation",
			"government":          "$government_Democracy;",
			"security":            "$SYSTEM_SECURITY_high;",
			"population":          22780919531.0,
		},
		"powerplays": []any{
			map[string]any{"power": `["Jerome Archer","Nakato Kaine"]`, "powerplay_state": "Fortified", "control_progress": 0.456, "undermining": 0.0, "reinforcement": 12345.0},
		},
		"factions": []any{
			map[string]any{"name": "A", "influence": 0.2, "state": "None", "active_states": `[{"State":"Boom"},{"State":"Election"}]`},
			map[string]any{"name": "B", "influence": 0.7, "state": "Election", "government": "$government_Corporate;"},
		},
		"conflicts": []any{
			map[string]any{"war_type": "election", "status": "active", "faction1": "A", "faction2": "B", "won_days1": 2.0, "won_days2": 1.0},
			map[string]any{"war_type": "war", "status": "pending", "faction1": "C", "faction2": "D", "won_days1": 1.0, "won_days2": 1.0},
			map[string]any{"war_type": "civilwar", "faction1": "E", "faction2": "F"},
		},
	}

	infos := SystemInfos(data)
	if len(infos) != 1 {
		t.Fatalf("件数 = %d, want 1", len(infos))
	}
	info := infos[0]

	t.Run("見出しの項目が作られること", func(t *testing.T) {
		t.Parallel()

		chips := map[string]Chip{}
		for _, c := range info.Chips {
			chips[c.Label] = c
		}
		if chips["Government"].Value != "Democracy" || chips["Government"].Class != "info" {
			t.Errorf("Government = %+v", chips["Government"])
		}
		if chips["Security"].Value != "High" || chips["Security"].Class != "ok" {
			t.Errorf("Security = %+v", chips["Security"])
		}
		if chips["Population"].Value != "22.780.919.531" {
			t.Errorf("Population = %q", chips["Population"].Value)
		}
		if chips["Powers (nearby)"].Value != "Jerome Archer, Nakato Kaine" {
			t.Errorf("Powers = %q", chips["Powers (nearby)"].Value)
		}
		if chips["Ctrl-Progress"].Value != "45.6%" {
			t.Errorf("Ctrl-Progress = %q", chips["Ctrl-Progress"].Value)
		}
		if chips["Undermining"].Class != "neut" || chips["Reinforcement"].Value != "12.345" {
			t.Errorf("Undermining = %+v, Reinforcement = %+v", chips["Undermining"], chips["Reinforcement"])
		}
		if _, ok := chips["Controlling Power"]; ok {
			t.Error("空のControlling Powerが表示された")
		}
	})

	t.Run("勢力は影響力の降順でアイコン付きになること", func(t *testing.T) {
		t.Parallel()

		if c, _ := info.Factions.Cell(0, "Name"); c.Text != "B" {
			t.Errorf("先頭 = %q, want B", c.Text)
		}
		if c, _ := info.Factions.Cell(0, "Government"); c.Text != "Corporate" {
			t.Errorf("Government = %q", c.Text)
		}
		if c, _ := info.Factions.Cell(1, "Active States"); c.Text != "📈 Boom · 🗳️ Election" {
			t.Errorf("Active States = %q", c.Text)
		}
		if c, _ := info.Factions.Cell(1, "State"); c.Text != "" {
			t.Errorf("State = %q, want 空", c.Text)
		}
	})

	t.Run("紛争は勝利日数で色分けされること", func(t *testing.T) {
		t.Parallel()

		tbl := info.Conflicts
		if c, _ := tbl.Cell(0, "Type"); c.Text != "🗳 Election" {
			t.Errorf("Type = %q", c.Text)
		}
		f1, _ := tbl.Cell(0, "Faction 1")
		f2, _ := tbl.Cell(0, "Faction 2")
		if f1.Style != colorStyle(conflictLeadColor) || f2.Style != colorStyle(conflictTrailColor) {
			t.Errorf("優勢/劣勢の色が不正: %q %q", f1.Style, f2.Style)
		}
		tie, _ := tbl.Cell(1, "Faction 1")
		if tie.Style != colorStyle(conflictTieColor) {
			t.Errorf("同数の色が不正: %q", tie.Style)
		}
		none, _ := tbl.Cell(2, "Faction 1")
		status, _ := tbl.Cell(2, "Status")
		if none.Style != "" || status.Text != "-" {
			t.Errorf("勝利日数なし: %+v %+v", none, status)
		}
	})
}
