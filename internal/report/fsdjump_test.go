package report

import (
	"reflect"
	"testing"
)

func fsdJumpFixture() []Row {
	return []Row{
		{
			"StarSystem":    "Sol",
			"SystemAddress": 10477373803.0,
			"Timestamp":     "3310-05-01T12:00:00Z",
			"Factions": []any{
				map[string]any{"Name": "Mother Gaia", "FactionState": "Boom", "Influence": 0.25, "Government": "Democracy",
					"PendingStates": []any{map[string]any{"State": "Expansion"}}},
				map[string]any{"Name": "Sol Workers", "FactionState": "None", "Influence": 0.6,
					"RecoveringStates": []any{map[string]any{"State": "War"}}},
			},
		},
		{
			"StarSystem": "Lave",
			"Factions": []any{
				map[string]any{"Name": "Lave Signs", "FactionState": "War", "Influence": 0.4},
			},
		},
	}
}

func TestFSDJump(t *testing.T) {
	t.Parallel()

	t.Run("選択肢が応答から集められること", func(t *testing.T) {
		t.Parallel()

		rep := FSDJump(fsdJumpFixture(), FSDJumpFilter{})
		want := FSDJumpOptions{
			Systems:    []string{"Lave", "Sol"},
			Factions:   []string{"Lave Signs", "Mother Gaia", "Sol Workers"},
			States:     []string{"Boom", "War"},
			Pending:    []string{"Expansion"},
			Recovering: []string{"War"},
		}
		if !reflect.DeepEqual(rep.Options, want) {
			t.Errorf("Options = %+v, want %+v", rep.Options, want)
		}
		if len(rep.Systems) != 2 {
			t.Errorf("Systems = %d, want 2", len(rep.Systems))
		}
	})

	t.Run("全ての条件に一致するシステムだけが残ること", func(t *testing.T) {
		t.Parallel()

		rep := FSDJump(fsdJumpFixture(), FSDJumpFilter{State: "Boom", Recovering: "War"})
		if len(rep.Systems) != 1 || rep.Systems[0].Name != "Sol" {
			t.Fatalf("Systems = %+v", rep.Systems)
		}

		rep = FSDJump(fsdJumpFixture(), FSDJumpFilter{State: "War", Pending: "Expansion"})
		if len(rep.Systems) != 0 || rep.Empty != "No systems match the filter." {
			t.Errorf("Systems = %+v, Empty = %q", rep.Systems, rep.Empty)
		}
	})

	t.Run("勢力は影響力の降順で状態Noneは空欄になること", func(t *testing.T) {
		t.Parallel()

		rep := FSDJump(fsdJumpFixture(), FSDJumpFilter{System: "Sol"})
		tbl := rep.Systems[0].Factions
		if c, _ := tbl.Cell(0, "Name"); c.Text != "Sol Workers" {
			t.Errorf("先頭 = %q, want Sol Workers", c.Text)
		}
		if c, _ := tbl.Cell(0, "Influence"); c.Text != "60.00%" {
			t.Errorf("Influence = %q, want 60.00%%", c.Text)
		}
		if c, _ := tbl.Cell(0, "State"); c.Text != "" || c.Style != "" {
			t.Errorf("State = %+v, want 空", c)
		}
		if c, _ := tbl.Cell(1, "State"); c.Style == "" {
			t.Error("Boomに色が付いていない")
		}
		if rep.Systems[0].SystemAddress != "10477373803" {
			t.Errorf("SystemAddress = %q", rep.Systems[0].SystemAddress)
		}
	})

	t.Run("データがない場合のメッセージ", func(t *testing.T) {
		t.Parallel()

		if rep := FSDJump(nil, FSDJumpFilter{}); rep.Empty != "No data found." {
			t.Errorf("Empty = %q", rep.Empty)
		}
	})
}
