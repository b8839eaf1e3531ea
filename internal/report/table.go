package report

import (
	"sort"
	"strconv"
)

// NoColumn は行番号の列名。
const NoColumn = "No."

// Cell は表の1セル。
type Cell struct {
	// Text は表示する文字列。
	Text string
	// Value は数値セルの値。グラフの集計に使う。
	Value float64
	// Numeric は右寄せで表示する数値セルかどうか。
	Numeric bool
	// Style はセルに付けるインラインCSS。
	Style string
}

// Column は表の列。
type Column struct {
	Label   string
	Numeric bool
	// Pinned は横スクロールしても左に固定する列かどうか。
	Pinned bool
}

// Table はテンプレートに渡す表。
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]Cell
	// Empty は行がない場合に表示するメッセージ。
	Empty string
	// Err はこの表だけ読み込みに失敗した場合のエラーメッセージ。
	Err string
}

// Len は行数を返す。
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex は列名の位置を返す。存在しない場合は -1。
func (t *Table) ColumnIndex(label string) int {
	for i, c := range t.Columns {
		if c.Label == label {
			return i
		}
	}
	return -1
}

// Cell は行と列名を指定してセルを返す。
func (t *Table) Cell(row int, label string) (Cell, bool) {
	i := t.ColumnIndex(label)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return Cell{}, false
	}
	return t.Rows[row][i], true
}

// Spec はAPIの行から表を組み立てる方法。
type Spec struct {
	// Rename はAPIのキーから列名への変換。複数のキーが同じ列名になる場合は先に値があるものを使う。
	Rename map[string]string
	// Order は表示する列名と並び順。空の場合は全ての列を表示する。
	Order []string
	// Text は数値として書式化しない列名。
	Text []string
	// Pinned は左に固定する列名。
	Pinned []string
	// Numbered は先頭に行番号の列を付けるかどうか。
	Numbered bool
	// FillZero は数値列の欠損値を0で埋めるかどうか。
	FillZero bool
	// Raw は値を書式化せずにそのまま表示するかどうか。
	Raw bool
}

// Build はspecに従ってrowsから表を組み立てる。
func Build(rows []Row, spec Spec) *Table {
	text := toSet(spec.Text)
	text[NoColumn] = true
	pinned := toSet(spec.Pinned)

	renamed := make([]map[string]any, 0, len(rows))
	present := map[string]bool{}
	var discovered []string
	for _, r := range rows {
		m := map[string]any{}
		for _, key := range r.Keys() {
			label := key
			if l, ok := spec.Rename[key]; ok {
				label = l
			}
			v := r[key]
			if existing, ok := m[label]; ok && existing != nil {
				continue
			}
			m[label] = v
			if !present[label] {
				present[label] = true
				discovered = append(discovered, label)
			}
		}
		renamed = append(renamed, m)
	}

	var labels []string
	if len(spec.Order) > 0 {
		for _, l := range spec.Order {
			if present[l] || (l == NoColumn && spec.Numbered) {
				labels = append(labels, l)
			}
		}
	} else {
		labels = ColumnKeys(labelRows(discovered))
		if spec.Numbered {
			labels = append([]string{NoColumn}, labels...)
		}
	}
	if spec.Numbered && (len(labels) == 0 || labels[0] != NoColumn) {
		labels = append([]string{NoColumn}, removeLabel(labels, NoColumn)...)
	}

	t := &Table{}
	for _, l := range labels {
		t.Columns = append(t.Columns, Column{
			Label:   l,
			Numeric: !spec.Raw && !text[l],
			Pinned:  pinned[l] || l == NoColumn,
		})
	}
	for i, m := range renamed {
		cells := make([]Cell, len(t.Columns))
		for j, col := range t.Columns {
			if col.Label == NoColumn && spec.Numbered {
				cells[j] = Cell{Text: strconv.Itoa(i + 1), Value: float64(i + 1)}
				continue
			}
			cells[j] = makeCell(m[col.Label], col.Numeric, spec)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func makeCell(v any, numeric bool, spec Spec) Cell {
	if spec.Raw {
		return Cell{Text: stringify(v)}
	}
	if !numeric {
		return Cell{Text: stringify(v)}
	}
	if v == nil {
		if spec.FillZero {
			return Cell{Text: "0", Numeric: true}
		}
		return Cell{Numeric: true}
	}
	f, ok := toFloat(v)
	if !ok {
		return Cell{Text: stringify(v), Numeric: true}
	}
	return Cell{Text: Number(f), Value: f, Numeric: true}
}

// labelRows は列名だけを持つ行を作り、ColumnKeys で並べ替えられるようにする。
func labelRows(labels []string) []Row {
	r := Row{}
	for _, l := range labels {
		r[l] = true
	}
	return []Row{r}
}

func removeLabel(labels []string, target string) []string {
	out := labels[:0:0]
	for _, l := range labels {
		if l != target {
			out = append(out, l)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}

// Share は円グラフの1要素。
type Share struct {
	Label   string
	Value   float64
	Percent float64
	Color   string
}

// chartColors は円グラフと棒グラフの色。
var chartColors = []string{
	"#636efa", "#ef553b", "#00cc96", "#ab63fa", "#ffa15a",
	"#19d3f3", "#ff6692", "#b6e880", "#ff97ff", "#fecb52",
}

// Shares はラベルごとに値を合計し、正の値だけを割合付きで返す。値の大きい順に並べる。
func Shares(labels []string, values []float64) []Share {
	sums := map[string]float64{}
	var order []string
	for i, l := range labels {
		if i >= len(values) || l == "" {
			continue
		}
		if _, ok := sums[l]; !ok {
			order = append(order, l)
		}
		sums[l] += values[i]
	}

	var total float64
	shares := make([]Share, 0, len(order))
	for _, l := range order {
		if sums[l] <= 0 {
			continue
		}
		total += sums[l]
		shares = append(shares, Share{Label: l, Value: sums[l]})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Value > shares[j].Value })
	for i := range shares {
		shares[i].Percent = shares[i].Value / total * 100
		shares[i].Color = chartColors[i%len(chartColors)]
	}
	return shares
}
