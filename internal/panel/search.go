package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/chart"
	"github.com/anytimesk/stock-ml-front-end/internal/client"
	"github.com/anytimesk/stock-ml-front-end/internal/format"
	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/table"
)

// Searcher looks up price history.
type Searcher interface {
	Search(ctx context.Context, stockName string, numOfRows int) (*client.PriceResult, error)
}

// SearchColumns are the price table columns.
func SearchColumns() []table.Column {
	return []table.Column{
		{Key: "basDt", Label: "Date", Formatter: format.Date},
		{Key: "itmsNm", Label: "Name"},
		{Key: "mkp", Label: "Open", Formatter: format.Number},
		{Key: "hipr", Label: "High", Formatter: format.Number},
		{Key: "lopr", Label: "Low", Formatter: format.Number},
		{Key: "clpr", Label: "Close", Formatter: format.Number},
		{Key: "vs", Label: "Change", Formatter: format.Number},
		{Key: "fltRt", Label: "Change %", Formatter: format.Percent},
		{Key: "trqu", Label: "Volume", Formatter: format.Number},
		{Key: "trPrc", Label: "Value", Formatter: format.Number},
	}
}

// SearchView is everything the search page renders.
type SearchView struct {
	Query      string
	Rows       int
	RowCounts  []int
	Pending    bool
	Error      string
	Notice     string
	HasChart   bool
	ChartTitle string
	ChartLen   int
	Zoom       chart.Zoom
	TotalCount int
	Table      table.View
}

// SearchPanel runs price searches and feeds the results to a chart view
// and a table.
type SearchPanel struct {
	mu       sync.Mutex
	searcher Searcher
	chart    *chart.View
	table    *table.Presenter[model.PriceRecord]
	query    string
	rows     int
	total    int
	notice   string
	slot     Slot[*client.PriceResult]
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSearchPanel creates a search panel drawing into view.
func NewSearchPanel(searcher Searcher, view *chart.View, pageSize int, timeout time.Duration, logger *zap.Logger) *SearchPanel {
	return &SearchPanel{
		searcher: searcher,
		chart:    view,
		table:    table.NewPresenter[model.PriceRecord](SearchColumns(), pageSize),
		rows:     model.RowCounts[0],
		timeout:  timeout,
		logger:   logger,
	}
}

// Search clears the previous output and starts a lookup. The returned
// channel closes when the lookup ends.
func (p *SearchPanel) Search(stockName string, numOfRows int) <-chan struct{} {
	name := strings.TrimSpace(stockName)

	p.mu.Lock()
	p.query = name
	p.rows = numOfRows
	p.clearLocked()
	p.mu.Unlock()
	p.chart.Clear()

	return p.slot.Go(func() (*client.PriceResult, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		return p.searcher.Search(ctx, name, numOfRows)
	}, func(res *client.PriceResult, err error) {
		p.apply(name, res, err)
	})
}

// clearLocked must be called with p.mu held.
func (p *SearchPanel) clearLocked() {
	p.total = 0
	p.notice = ""
	p.table.SetData(nil)
	p.table.SetTitle("")
}

func (p *SearchPanel) apply(name string, res *client.PriceResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLocked()
	if err != nil || res == nil {
		p.chart.Clear()
		return
	}
	if len(res.Items) == 0 {
		p.chart.Clear()
		p.notice = fmt.Sprintf("No results for %q.", name)
		return
	}

	p.total = res.TotalCount
	p.table.SetData(res.Items)
	p.table.SetTitle(fmt.Sprintf("%s price info", name))
	p.chart.Update(res.Items, fmt.Sprintf("%s price chart", name))
}

// SetPage moves the table to page.
func (p *SearchPanel) SetPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table.GoTo(page)
}

// SetPageSize changes the table page size.
func (p *SearchPanel) SetPageSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table.SetPageSize(size)
}

// Chart returns the panel's chart view.
func (p *SearchPanel) Chart() *chart.View {
	return p.chart
}

// Close releases the chart.
func (p *SearchPanel) Close() {
	p.chart.Close()
}

// View renders the panel state.
func (p *SearchPanel) View() SearchView {
	status := p.slot.Status()

	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.chart.Len()
	return SearchView{
		Query:      p.query,
		Rows:       p.rows,
		RowCounts:  model.RowCounts,
		Pending:    status.Pending,
		Error:      ErrorMessage(status.Err),
		Notice:     p.notice,
		HasChart:   n > 0,
		ChartTitle: p.chart.Title(),
		ChartLen:   n,
		Zoom:       chart.DefaultZoom(n),
		TotalCount: p.total,
		Table:      p.table.View(),
	}
}
