package report

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// defaultStateColor は未知の状態と状態なしの背景色。
const defaultStateColor = "#181c22"

var stateColors = map[string]string{
	"War":                   "#e74c3c",
	"CivilWar":              "#e74c3c",
	"Election":              "#e67e22",
	"Elections":             "#e67e22",
	"Expansion":             "#3498db",
	"Boom":                  "#2980b9",
	"Bust":                  "#f1c40f",
	"CivilUnrest":           "#f39c12",
	"Famine":                "#8e44ad",
	"Outbreak":              "#16a085",
	"Investment":            "#27ae60",
	"PublicHoliday":         "#9b59b6",
	"InfrastructureFailure": "#7f8c8d",
	"Drought":               "#d35400",
	"Blight":                "#8e44ad",
	"PirateAttack":          "#16a085",
	"Retreat":               "#95a5a6",
	"None":                  defaultStateColor,
}

var stateIcons = map[string]string{
	"War":                   "⚔️",
	"CivilWar":              "⚔️",
	"Election":              "🗳️",
	"Elections":             "🗳️",
	"Expansion":             "🡅",
	"Boom":                  "📈",
	"Bust":                  "📉",
	"CivilUnrest":           "🔥",
	"Famine":                "🍞❌",
	"Outbreak":              "🧪",
	"Investment":            "💰",
	"PublicHoliday":         "🎉",
	"InfrastructureFailure": "🧱",
	"Drought":               "🌵",
	"Blight":                "🌿❌",
	"PirateAttack":          "☠️",
	"Retreat":               "⬇️",
}

var governmentColors = map[string]string{
	"Anarchy":       "#e74c3c",
	"Dictatorship":  "#e67e22",
	"Feudal":        "#3498db",
	"Patronage":     "#2980b9",
	"Democracy":     "#f1c40f",
	"Communism":     "#f39c12",
	"Confederacy":   "#d35400",
	"Cooperative":   "#8e44ad",
	"Corporate":     "#16a085",
	"Prison Colony": "#7f8c8d",
	"Theocracy":     "#9b59b6",
}

// States は選択肢として表示する状態の一覧。
var States = []string{
	"War", "CivilWar", "Election", "Expansion", "Boom", "Bust", "CivilUnrest",
	"Famine", "Outbreak", "Investment", "PublicHoliday", "InfrastructureFailure",
	"Drought", "Blight", "PirateAttack", "Retreat", "None",
}

// StateColor は状態の背景色を返す。
func StateColor(state string) string {
	if c, ok := stateColors[state]; ok {
		return c
	}
	return defaultStateColor
}

// StateIcon は状態のアイコンを返す。
func StateIcon(state string) string {
	if icon, ok := stateIcons[state]; ok {
		return icon
	}
	return "•"
}

// GovernmentColor は政府の種類の色を返す。未知の場合は空文字列。
func GovernmentColor(government string) string {
	return governmentColors[government]
}

// StateLabel はアイコン付きの状態名を返す。状態なしの場合は空文字列。
func StateLabel(state string) string {
	if blankState(state) {
		return ""
	}
	return StateIcon(state) + " " + StateName(state)
}

// StateStyle は単一の状態のセルに付けるCSSを返す。
func StateStyle(state string) string {
	if blankState(state) {
		return ""
	}
	return fmt.Sprintf("background-color:%s;color:#fff;font-weight:600;", StateColor(state))
}

// StatesLabel は複数の状態をアイコン付きで「 · 」区切りにする。
func StatesLabel(states []string) string {
	labels := make([]string, 0, len(states))
	for _, s := range states {
		labels = append(labels, StateLabel(s))
	}
	return strings.Join(labels, " · ")
}

// StatesStyle は複数の状態のセルに付けるCSSを返す。2つ以上の場合は等幅の縞模様にする。
func StatesStyle(states []string) string {
	switch len(states) {
	case 0:
		return ""
	case 1:
		return StateStyle(states[0])
	}
	n := len(states)
	stops := make([]string, 0, n)
	for i, s := range states {
		stops = append(stops, fmt.Sprintf("%s %d%% %d%%", StateColor(s), i*100/n, (i+1)*100/n))
	}
	return fmt.Sprintf("background:linear-gradient(90deg, %s);color:#fff;font-weight:700;text-shadow:0 1px 2px rgba(0,0,0,.35);",
		strings.Join(stops, ", "))
}

func blankState(state string) bool {
	return state == "" || state == "None"
}

// StateList は状態の値を状態名のスライスにする。
// 値は配列（文字列または {"State": ...}）、JSON文字列、カンマ区切り文字列のいずれか。None は除く。
func StateList(v any) []string {
	var out []string
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range t {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case map[string]any:
				if name, ok := s["State"].(string); ok {
					out = append(out, name)
				}
			}
		}
	case []string:
		out = append(out, t...)
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" || trimmed == "null" {
			return nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			if _, isString := decoded.(string); !isString {
				return StateList(decoded)
			}
		}
		for _, s := range strings.Split(trimmed, ",") {
			out = append(out, strings.TrimSpace(s))
		}
	}

	states := out[:0]
	for _, s := range out {
		if !blankState(s) {
			states = append(states, s)
		}
	}
	return states
}
