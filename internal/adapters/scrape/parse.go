package scrape

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/scout/internal/domain/table"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

// ParseRegion parses every table inside one region. Nested tables produce
// their own results and each row belongs to its nearest enclosing table.
func ParseRegion(region string) ([]table.Raw, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(region))
	if err != nil {
		return nil, fmt.Errorf("parse region: %w", err)
	}

	var out []table.Raw
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		if raw, ok := parseTable(t); ok {
			out = append(out, raw)
		}
	})
	if len(out) == 0 {
		return nil, ErrEmptyTable
	}
	return out, nil
}

func parseTable(t *goquery.Selection) (table.Raw, bool) {
	own := t.Find("tr").FilterFunction(func(_ int, r *goquery.Selection) bool {
		return r.Closest("table").IsSelection(t)
	})

	var head, body []*goquery.Selection
	own.Each(func(_ int, r *goquery.Selection) {
		if r.Parent().Is("thead") {
			head = append(head, r)
		} else {
			body = append(body, r)
		}
	})
	// Without a thead, leading rows made only of <th> cells are the header.
	if len(head) == 0 {
		for len(body) > 0 && isHeaderRow(body[0]) {
			head = append(head, body[0])
			body = body[1:]
		}
	}

	headGrid := expand(head)
	bodyGrid := expand(body)

	width := 0
	for _, g := range [][][]string{headGrid, bodyGrid} {
		for _, row := range g {
			width = max(width, len(row))
		}
	}
	if width == 0 {
		return table.Raw{}, false
	}

	raw := table.Raw{Columns: make([]table.Column, width)}
	for c := 0; c < width; c++ {
		if len(headGrid) == 0 {
			raw.Columns[c] = table.Column{strconv.Itoa(c)}
			continue
		}
		col := make(table.Column, len(headGrid))
		for lvl, row := range headGrid {
			var text string
			if c < len(row) {
				text = row[c]
			}
			if text == "" {
				text = table.PlaceholderPrefix + strconv.Itoa(c) + "_level_" + strconv.Itoa(lvl)
			}
			col[lvl] = text
		}
		raw.Columns[c] = col
	}

	for _, row := range bodyGrid {
		if len(row) == 0 {
			continue
		}
		vals := make([]table.Value, width)
		for c := range vals {
			if c < len(row) {
				vals[c] = table.Str(row[c])
			}
		}
		raw.Rows = append(raw.Rows, vals)
	}
	return raw, true
}

func isHeaderRow(r *goquery.Selection) bool {
	cells := r.ChildrenFiltered("th, td")
	return cells.Length() > 0 && cells.Length() == cells.Filter("th").Length()
}

type carried struct {
	text string
	left int
}

// expand lays rows out on a grid, repeating colspan cells across columns
// and rowspan cells into the rows below.
func expand(rows []*goquery.Selection) [][]string {
	grid := make([][]string, 0, len(rows))
	pending := make(map[int]carried)

	take := func(line []string, col int) []string {
		p := pending[col]
		p.left--
		if p.left == 0 {
			delete(pending, col)
		} else {
			pending[col] = p
		}
		return append(line, p.text)
	}

	for _, r := range rows {
		var line []string
		col := 0
		r.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			for {
				if _, ok := pending[col]; !ok {
					break
				}
				line = take(line, col)
				col++
			}
			text := cellText(cell)
			rs := span(cell, "rowspan")
			for k := span(cell, "colspan"); k > 0; k-- {
				line = append(line, text)
				if rs > 1 {
					pending[col] = carried{text: text, left: rs - 1}
				}
				col++
			}
		})
		if len(pending) > 0 {
			last := 0
			for k := range pending {
				last = max(last, k)
			}
			for ; col <= last; col++ {
				if _, ok := pending[col]; ok {
					line = take(line, col)
				} else {
					line = append(line, "")
				}
			}
		}
		grid = append(grid, line)
	}
	return grid
}

func cellText(cell *goquery.Selection) string {
	return strings.Join(strings.Fields(cell.Text()), " ")
}

func span(cell *goquery.Selection, attr string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell.AttrOr(attr, "1")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Default parser configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
)

// Parser parses regions, optionally in parallel. Results keep region order.
type Parser struct {
	workers int
	logger  logger.Logger
}

// NewParser creates a Parser with configuration options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		workers: 1,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = runtime.NumCPU() * defaultWorkerMultiplier
	}
	return p
}

type parsed struct {
	index  int
	tables []table.Raw
}

// ParseAll parses every region and concatenates the tables in region order.
// A region that fails is logged and skipped. The only error is ctx's.
func (p *Parser) ParseAll(ctx context.Context, regions []string) ([]table.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	workers := min(p.workers, max(len(regions), 1))
	jobs := make(chan int)
	results := make(chan parsed, len(regions))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tables, err := ParseRegion(regions[i])
				if err != nil {
					metrics.RecordParseFailure()
					p.logger.Debug(ctx, "skipping unparseable region",
						logger.Int("region", i),
						logger.Error(err),
					)
					continue
				}
				results <- parsed{index: i, tables: tables}
			}
		}()
	}

	var err error
feed:
	for i := range regions {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	if err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}

	ordered := make([]parsed, 0, len(regions))
	for r := range results {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].index < ordered[b].index })

	var out []table.Raw
	for _, r := range ordered {
		out = append(out, r.tables...)
	}
	metrics.RecordTablesParsed(len(out))
	return out, nil
}
