package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	enPrinter = message.NewPrinter(language.AmericanEnglish)
	dePrinter = message.NewPrinter(language.German)
)

// Number は数値を桁区切り付きで書式化する（例: 1,234,567）。整数でない場合は小数2桁まで表示する。
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == math.Trunc(v) {
		return enPrinter.Sprintf("%d", int64(v))
	}
	s := enPrinter.Sprintf("%.2f", v)
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}

// Percent は0から1の割合を小数点以下 decimals 桁のパーセント表記にする（例: 0.1234 → 12.34%）。
func Percent(ratio float64, decimals int) string {
	return strconv.FormatFloat(ratio*100, 'f', decimals, 64) + "%"
}

// Population は人口をドイツ語圏の表記（ピリオド区切り）で書式化する（例: 1.234.567）。
func Population(n int64) string {
	return dePrinter.Sprintf("%d", n)
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// stateNames は単純な単語分割では読みにくい状態名。
var stateNames = map[string]string{
	"CivilWar":              "Civil War",
	"PublicHoliday":         "Public Holiday",
	"InfrastructureFailure": "Infrastructure Failure",
}

// StateName は CamelCase の状態名を単語に区切る（例: CivilUnrest → Civil Unrest）。
func StateName(s string) string {
	if s == "" {
		return ""
	}
	if name, ok := stateNames[s]; ok {
		return name
	}
	return camelBoundary.ReplaceAllString(s, "$1 $2")
}

var governmentNames = map[string]string{
	"$government_Corporate;":    "Corporate",
	"$government_Dictatorship;": "Dictatorship",
	"$government_Feudal;":       "Feudal",
	"$government_Patronage;":    "Patronage",
	"$government_Democracy;":    "Democracy",
	"$government_Communism;":    "Communism",
	"$government_Confederacy;":  "Confederacy",
	"$government_Cooperative;":  "Cooperative",
	"$government_Anarchy;":      "Anarchy",
	"$government_PrisonColony;": "Prison Colony",
}

var securityNames = map[string]string{
	"$SYSTEM_SECURITY_low;":     "Low",
	"$SYSTEM_SECURITY_medium;":  "Medium",
	"$SYSTEM_SECURITY_high;":    "High",
	"$SYSTEM_SECURITY_anarchy;": "Anarchy",
}

// Government はFDevの政府キー（$government_X;）を表示名にする。
func Government(key string) string {
	if name, ok := governmentNames[key]; ok {
		return name
	}
	return humanizeConstant(key)
}

// Security はFDevの治安キー（$SYSTEM_SECURITY_x;）を表示名にする。
func Security(key string) string {
	if name, ok := securityNames[key]; ok {
		return name
	}
	return humanizeConstant(key)
}

func humanizeConstant(key string) string {
	if key == "" {
		return "-"
	}
	s := strings.NewReplacer("$", "", ";", "", "government_", "", "SYSTEM_SECURITY_", "").Replace(key)
	s = title(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return "-"
	}
	return s
}

// title は単語の先頭を大文字、残りを小文字にする。
func title(s string) string {
	// Caser は状態を持つため呼び出しごとに生成する
	return cases.Title(language.English).String(s)
}
