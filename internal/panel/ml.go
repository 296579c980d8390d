package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/format"
	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/table"
)

// MLActions are the backend operations behind the ML page.
type MLActions interface {
	ListFiles(ctx context.Context) ([]model.CSVFile, int, error)
	GenerateCSV(ctx context.Context, stockName string) (model.RawResult, error)
	Train(ctx context.Context, selected []model.CSVFile, modelType model.ModelType) (model.RawResult, error)
	Predict(ctx context.Context, selected []model.CSVFile, modelType model.ModelType) (model.RawResult, error)
	TrainParams() model.TrainParams
}

// CSVColumns are the file table columns.
func CSVColumns() []table.Column {
	return []table.Column{
		{Key: "filename", Label: "File"},
		{Key: "stockName", Label: "Name"},
		{Key: "stockCode", Label: "Code"},
		{Key: "createdAt", Label: "Created", Formatter: format.CreatedAt},
		{Key: "sizeBytes", Label: "Size", Formatter: format.FileSize},
	}
}

// ModelOption is one entry of the model toggle.
type ModelOption struct {
	Value  model.ModelType
	Label  string
	Active bool
}

// MLView is everything the ML page renders.
type MLView struct {
	Table        table.View
	Count        int
	Selected     []model.CSVFile
	ModelType    model.ModelType
	Models       []ModelOption
	Params       model.TrainParams
	GenerateName string
	Files        ActionView
	Generate     ActionView
	Train        ActionView
	Predict      ActionView
}

// MLPanel runs the CSV, training and prediction actions. Each action has
// its own slot, so one in flight never blocks another.
type MLPanel struct {
	mu           sync.Mutex
	actions      MLActions
	table        *table.Presenter[model.CSVFile]
	selected     []model.CSVFile
	modelType    model.ModelType
	count        int
	loaded       bool
	generateName string

	files    Slot[[]model.CSVFile]
	generate Slot[model.RawResult]
	train    Slot[model.RawResult]
	predict  Slot[model.RawResult]

	timeout      time.Duration
	trainTimeout time.Duration
	logger       *zap.Logger
}

// NewMLPanel creates an ML panel. Training runs get trainTimeout, every
// other action gets timeout.
func NewMLPanel(actions MLActions, pageSize int, timeout, trainTimeout time.Duration, logger *zap.Logger) *MLPanel {
	p := &MLPanel{
		actions:      actions,
		modelType:    model.ModelLSTM,
		timeout:      timeout,
		trainTimeout: trainTimeout,
		logger:       logger,
	}
	p.table = table.NewPresenter[model.CSVFile](CSVColumns(), pageSize,
		table.WithTitle[model.CSVFile]("CSV files"),
		table.WithSelection(func(sel []model.CSVFile) {
			// Called by the presenter with p.mu held.
			p.selected = sel
		}),
	)
	return p
}

// EnsureLoaded fetches the file list the first time the page is shown. It
// returns nil when the list was already requested.
func (p *MLPanel) EnsureLoaded() <-chan struct{} {
	p.mu.Lock()
	if p.loaded {
		p.mu.Unlock()
		return nil
	}
	p.loaded = true
	p.mu.Unlock()

	return p.RefreshFiles()
}

// RefreshFiles reloads the file list. A successful reload clears the
// selection; a failed one keeps the previous list.
func (p *MLPanel) RefreshFiles() <-chan struct{} {
	p.mu.Lock()
	p.loaded = true
	p.mu.Unlock()

	var count int
	return p.files.Go(func() ([]model.CSVFile, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		files, n, err := p.actions.ListFiles(ctx)
		count = n
		return files, err
	}, func(files []model.CSVFile, err error) {
		if err != nil {
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		p.table.SetData(files)
		p.count = count
	})
}

// GenerateCSV asks for a CSV export and reloads the list when it succeeds.
func (p *MLPanel) GenerateCSV(stockName string) <-chan struct{} {
	name := strings.TrimSpace(stockName)

	p.mu.Lock()
	p.generateName = name
	p.mu.Unlock()

	return p.generate.Go(func() (model.RawResult, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		return p.actions.GenerateCSV(ctx, name)
	}, func(_ model.RawResult, err error) {
		if err == nil {
			p.RefreshFiles()
		}
	})
}

// ToggleIndex toggles the file at an absolute index in the list.
func (p *MLPanel) ToggleIndex(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.table.ToggleIndex(index)
	return ok
}

// SetModelType switches the model toggle.
func (p *MLPanel) SetModelType(m model.ModelType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelType = m
}

// ModelType returns the active model toggle.
func (p *MLPanel) ModelType() model.ModelType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modelType
}

// Selected returns the selected files in selection order.
func (p *MLPanel) Selected() []model.CSVFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CSVFile(nil), p.selected...)
}

// SetPage moves the file table to page.
func (p *MLPanel) SetPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table.GoTo(page)
}

func (p *MLPanel) snapshot() ([]model.CSVFile, model.ModelType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CSVFile(nil), p.selected...), p.modelType
}

// Train trains the active model type on the first selected file.
func (p *MLPanel) Train() <-chan struct{} {
	selected, modelType := p.snapshot()
	return p.train.Go(func() (model.RawResult, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.trainTimeout)
		defer cancel()
		return p.actions.Train(ctx, selected, modelType)
	}, nil)
}

// Predict runs the active model type on the first selected file.
func (p *MLPanel) Predict() <-chan struct{} {
	selected, modelType := p.snapshot()
	return p.predict.Go(func() (model.RawResult, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		return p.actions.Predict(ctx, selected, modelType)
	}, nil)
}

func resultView(s Status[model.RawResult]) ActionView {
	v := ActionView{
		Pending: s.Pending,
		Done:    s.Done,
		Error:   ErrorMessage(s.Err),
	}
	if s.Done && s.Err == nil && len(s.Result) > 0 {
		v.Output = s.Result.Pretty()
	}
	return v
}

// View renders the panel state.
func (p *MLPanel) View() MLView {
	files := p.files.Status()
	generate := p.generate.Status()
	train := p.train.Status()
	predict := p.predict.Status()

	p.mu.Lock()
	defer p.mu.Unlock()

	v := MLView{
		Table:        p.table.View(),
		Count:        p.count,
		Selected:     append([]model.CSVFile(nil), p.selected...),
		ModelType:    p.modelType,
		Params:       p.actions.TrainParams(),
		GenerateName: p.generateName,
		Files: ActionView{
			Pending: files.Pending,
			Done:    files.Done,
			Error:   ErrorMessage(files.Err),
		},
		Generate: resultView(generate),
		Train:    resultView(train),
		Predict:  resultView(predict),
	}
	if generate.Done && generate.Err == nil {
		v.Generate.Message = fmt.Sprintf("CSV file for %q was created.", p.generateName)
	}
	for _, m := range []model.ModelType{model.ModelLSTM, model.ModelRNN} {
		v.Models = append(v.Models, ModelOption{Value: m, Label: m.Label(), Active: m == p.modelType})
	}
	return v
}
