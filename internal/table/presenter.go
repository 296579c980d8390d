package table

import (
	"github.com/anytimesk/stock-ml-front-end/internal/utils"
)

// Cell is one rendered table cell.
type Cell struct {
	Text  string
	Class string
}

// Row is one rendered table row. Index is the row's position in the full
// data set, not in the page.
type Row struct {
	Index    int
	Cells    []Cell
	Selected bool
}

// View is everything a template needs to draw a table and its pager.
type View struct {
	Title      string
	Total      int
	Empty      bool
	Selectable bool
	Headers    []string
	Rows       []Row

	Page       int
	TotalPages int
	PageSize   int
	Pages      []int
	ShowPager  bool
	IsFirst    bool
	IsLast     bool
}

// Paginate returns the records on a page and the clamped page number.
func Paginate[T any](items []T, pageSize, page int) ([]T, int, int) {
	totalPages := utils.CalculateTotalPages(len(items), pageSize)
	page = utils.ClampPage(page, totalPages)
	if len(items) == 0 {
		return nil, page, totalPages
	}

	start := utils.CalculateOffset(page, pageSize)
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page, totalPages
}

// Option configures a Presenter.
type Option[T Record] func(*Presenter[T])

// WithSelection enables row selection. onChange receives the new set on
// every toggle and when a data refresh clears it.
func WithSelection[T Record](onChange func([]T)) Option[T] {
	return func(p *Presenter[T]) {
		p.selectable = true
		p.onChange = onChange
	}
}

// WithTitle sets the table caption.
func WithTitle[T Record](title string) Option[T] {
	return func(p *Presenter[T]) {
		p.title = title
	}
}

// Presenter holds a table's data, page position and selection. It is not
// safe for concurrent use; owners guard it with their own lock.
type Presenter[T Record] struct {
	columns    []Column
	pageSize   int
	page       int
	data       []T
	title      string
	selectable bool
	selection  Selection[T]
	onChange   func([]T)
}

// NewPresenter creates a presenter over columns with the given page size.
func NewPresenter[T Record](columns []Column, pageSize int, opts ...Option[T]) *Presenter[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	p := &Presenter[T]{
		columns:  columns,
		pageSize: pageSize,
		page:     1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetData replaces the records and returns to page 1. A selectable table
// also drops its selection, since the rows it referred to were replaced.
func (p *Presenter[T]) SetData(data []T) {
	p.data = data
	p.page = 1
	if p.selectable && p.selection.Len() > 0 {
		p.selection.Clear()
		p.notify()
	}
}

// SetTitle sets the table caption.
func (p *Presenter[T]) SetTitle(title string) {
	p.title = title
}

// Data returns the current records.
func (p *Presenter[T]) Data() []T {
	return p.data
}

// SetPageSize changes the page size and moves to the page that contains
// the record previously at the top of the page.
func (p *Presenter[T]) SetPageSize(size int) {
	if size < 1 || size == p.pageSize {
		return
	}
	offset := utils.CalculateOffset(p.page, p.pageSize)
	p.pageSize = size
	p.page = utils.ClampPage(offset/size+1, p.TotalPages())
}

// PageSize returns the current page size.
func (p *Presenter[T]) PageSize() int {
	return p.pageSize
}

// GoTo moves to a page, clamped to the valid range, and returns it.
func (p *Presenter[T]) GoTo(page int) int {
	p.page = utils.ClampPage(page, p.TotalPages())
	return p.page
}

// Page returns the current page number.
func (p *Presenter[T]) Page() int {
	return p.page
}

// TotalPages returns the number of pages, never less than one.
func (p *Presenter[T]) TotalPages() int {
	return utils.CalculateTotalPages(len(p.data), p.pageSize)
}

// Visible returns the records on the current page.
func (p *Presenter[T]) Visible() []T {
	items, _, _ := Paginate(p.data, p.pageSize, p.page)
	return items
}

// Toggle flips the selection state of item and notifies the owner. It is
// a no-op on tables without selection.
func (p *Presenter[T]) Toggle(item T) []T {
	if !p.selectable {
		return nil
	}
	p.selection.Toggle(item)
	p.notify()
	return p.selection.Items()
}

// ToggleIndex toggles the record at an absolute data index.
func (p *Presenter[T]) ToggleIndex(index int) ([]T, bool) {
	if index < 0 || index >= len(p.data) {
		return nil, false
	}
	return p.Toggle(p.data[index]), true
}

// Selected returns the selected records in selection order.
func (p *Presenter[T]) Selected() []T {
	return p.selection.Items()
}

// FirstSelected returns the earliest selected record.
func (p *Presenter[T]) FirstSelected() (T, bool) {
	return p.selection.First()
}

func (p *Presenter[T]) notify() {
	if p.onChange != nil {
		p.onChange(p.selection.Items())
	}
}

// View renders the current page.
func (p *Presenter[T]) View() View {
	v := View{
		Title:      p.title,
		Total:      len(p.data),
		Empty:      len(p.data) == 0,
		Selectable: p.selectable,
		PageSize:   p.pageSize,
	}
	for _, c := range p.columns {
		v.Headers = append(v.Headers, c.Label)
	}

	meta := utils.NewPaginationMetadata(len(p.data), p.page, p.pageSize)
	v.Page = meta.CurrentPage
	v.TotalPages = meta.TotalPages
	v.ShowPager = meta.TotalPages > 1
	v.IsFirst = v.Page == 1
	v.IsLast = v.Page == v.TotalPages
	v.Pages = utils.PageWindow(v.Page, v.TotalPages)

	if v.Empty {
		return v
	}

	offset := utils.CalculateOffset(v.Page, p.pageSize)
	for i, rec := range p.Visible() {
		row := Row{
			Index:    offset + i,
			Selected: p.selectable && p.selection.Contains(rec),
		}
		for _, c := range p.columns {
			row.Cells = append(row.Cells, c.Cell(rec))
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}
