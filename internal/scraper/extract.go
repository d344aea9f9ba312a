package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/couchcryptid/climate-scraper/internal/domain"
)

// MonthRequest identifies one station-month fetch and carries the identity
// columns stamped onto every extracted record.
type MonthRequest struct {
	City     string
	Province string
	Station  domain.StationDescriptor
	Year     int
	Month    int
	URL      string
}

// dayRe finds the run of digits naming the day-of-month in a row's leading
// cell. Rows whose first cell has no digits are not data rows.
var dayRe = regexp.MustCompile(`\d+`)

// Extract parses one station-month daily-data page into climate records.
// A page without the expected report caption yields zero records; that is
// how the portal presents months with no observations, so it is not an
// error. Malformed rows are skipped individually.
func Extract(htmlText string, req MonthRequest) []domain.ClimateRecord {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil
	}

	caption := "Daily Data Report for " + time.Month(req.Month).String() + " " + strconv.Itoa(req.Year)
	table := findReportTable(doc, caption)
	if table == nil {
		return nil
	}

	schema := deriveSchema(table)

	var records []domain.ClimateRecord
	for _, row := range dataRows(table) {
		rec, ok := buildRecord(row, schema, req)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// findReportTable locates the first table whose caption contains the
// expected report title.
func findReportTable(doc *html.Node, caption string) *html.Node {
	for _, c := range findElements(doc, "caption") {
		if !strings.Contains(nodeText(c), caption) {
			continue
		}
		for n := c.Parent; n != nil; n = n.Parent {
			if n.Type == html.ElementNode && n.Data == "table" {
				return n
			}
		}
	}
	return nil
}

// deriveSchema builds the record column names for one report table. The
// measurement names come from the header links: the abbreviated label when
// present, the link text otherwise, normalized to lower_snake_case. Fixed
// identity and date columns lead, the source URL column trails. The result
// must line up positionally with the values assembled in buildRecord.
func deriveSchema(table *html.Node) []string {
	schema := []string{
		domain.ColCity,
		domain.ColProvince,
		domain.ColStationID,
		domain.ColStationName,
		domain.ColYear,
		domain.ColMonth,
		domain.ColDay,
	}

	for _, thead := range findElements(table, "thead") {
		for _, link := range findElements(thead, "a") {
			text := nodeText(link)
			if abbrs := findElements(link, "abbr"); len(abbrs) > 0 {
				text = nodeText(abbrs[0])
			}
			name := normalizeColumnName(text)
			if name != "" {
				schema = append(schema, name)
			}
		}
	}

	return append(schema, domain.ColMonthlyDataURL)
}

// dataRows returns the table rows that hold daily observations. The first
// two rows of this table layout are always header scaffolding, and any row
// containing th cells is a header or monthly-summary row.
func dataRows(table *html.Node) []*html.Node {
	rows := findElements(table, "tr")
	if len(rows) <= 2 {
		return nil
	}

	var out []*html.Node
	for _, row := range rows[2:] {
		if len(findElements(row, "th")) > 0 {
			continue
		}
		out = append(out, row)
	}
	return out
}

// buildRecord converts one data row into a record. The leading cell must
// carry a day number; its coerced value fills the day column. Rows whose
// cell count does not line up with the schema are dropped rather than
// producing a misaligned record.
func buildRecord(row *html.Node, schema []string, req MonthRequest) (domain.ClimateRecord, bool) {
	cells := findElements(row, "td")
	if len(cells) == 0 {
		return domain.ClimateRecord{}, false
	}

	texts := make([]string, len(cells))
	for i, td := range cells {
		texts[i] = nodeText(td)
	}

	if dayRe.FindString(texts[0]) == "" {
		return domain.ClimateRecord{}, false
	}

	values := make([]domain.Value, 0, len(schema))
	values = append(values,
		domain.StrValue(req.City),
		domain.StrValue(req.Province),
		domain.IntValue(req.Station.StationID),
		domain.StrValue(req.Station.Name),
		domain.IntValue(int64(req.Year)),
		domain.IntValue(int64(req.Month)),
	)
	for _, text := range texts {
		values = append(values, domain.Coerce(text))
	}
	values = append(values, domain.StrValue(req.URL))

	rec, err := domain.NewClimateRecord(schema, values)
	if err != nil {
		return domain.ClimateRecord{}, false
	}
	return rec, true
}

// normalizeColumnName trims a header label, lowercases it, and replaces
// the remaining spaces with underscores.
func normalizeColumnName(text string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(text), " ", "_"))
}

// findElements collects every descendant element with the given tag name,
// in document order.
func findElements(root *html.Node, tag string) []*html.Node {
	var nodes []*html.Node

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n != root && n.Type == html.ElementNode && n.Data == tag {
			nodes = append(nodes, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}

	traverse(root)
	return nodes
}

// nodeText concatenates the text nodes beneath n.
func nodeText(n *html.Node) string {
	var b strings.Builder

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}

	traverse(n)
	return b.String()
}
