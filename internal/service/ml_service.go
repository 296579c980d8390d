package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/audit"
	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/tracing"
	"github.com/anytimesk/stock-ml-front-end/internal/validator"
)

// publishTimeout bounds an audit write. It is measured from the end of the
// action, so an action that used up its own deadline can still be recorded.
const publishTimeout = 5 * time.Second

// MLClient is the part of the backend the ML page uses.
type MLClient interface {
	ListCSVFiles(ctx context.Context) ([]model.CSVFile, int, error)
	SaveStockDataCSV(ctx context.Context, req model.GenerateCSVRequest) (model.RawResult, error)
	TrainModel(ctx context.Context, req model.TrainRequest) (model.RawResult, error)
	Predict(ctx context.Context, req model.PredictRequest) (model.RawResult, error)
}

// MLService handles CSV export, training and prediction requests.
type MLService struct {
	client    MLClient
	params    model.TrainParams
	publisher audit.Publisher
	logger    *zap.Logger
}

// NewMLService creates a new ML service. A nil publisher disables auditing.
func NewMLService(client MLClient, params model.TrainParams, publisher audit.Publisher, logger *zap.Logger) *MLService {
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	return &MLService{
		client:    client,
		params:    params,
		publisher: publisher,
		logger:    logger,
	}
}

// TrainParams returns the hyperparameters sent with every training request.
func (s *MLService) TrainParams() model.TrainParams {
	return s.params
}

// ListFiles fetches the generated CSV files and the backend's total count.
func (s *MLService) ListFiles(ctx context.Context) ([]model.CSVFile, int, error) {
	files, count, err := s.client.ListCSVFiles(ctx)
	if err != nil {
		s.logger.Warn("Failed to list CSV files", zap.Error(err))
		return nil, 0, err
	}
	return files, count, nil
}

// GenerateCSV asks the backend to export a security's history.
func (s *MLService) GenerateCSV(ctx context.Context, stockName string) (model.RawResult, error) {
	req := model.GenerateCSVRequest{StockName: stockName}
	if err := validator.ValidateGenerateCSVRequest(&req); err != nil {
		return nil, err
	}

	ctx, span := startAction(ctx, audit.ActionGenerateCSV, attribute.String("stock.name", req.StockName))
	defer span.End()

	start := time.Now()
	res, err := s.client.SaveStockDataCSV(ctx, req)
	s.record(ctx, audit.Event{Action: audit.ActionGenerateCSV, StockName: req.StockName}, start, err)
	return res, err
}

// Train trains a model on the first selected file.
func (s *MLService) Train(ctx context.Context, selected []model.CSVFile, modelType model.ModelType) (model.RawResult, error) {
	if len(selected) == 0 {
		return nil, validator.Invalid(validator.MsgSelectFile)
	}
	file := selected[0]

	req := model.TrainRequest{IsinCode: file.StockCode, ModelType: modelType, Params: s.params}
	if err := validator.ValidateTrainRequest(&req); err != nil {
		return nil, err
	}

	ctx, span := startAction(ctx, audit.ActionTrain,
		attribute.String("stock.code", req.IsinCode),
		attribute.String("ml.model_type", string(req.ModelType)))
	defer span.End()

	start := time.Now()
	res, err := s.client.TrainModel(ctx, req)
	s.record(ctx, audit.Event{
		Action:    audit.ActionTrain,
		StockName: file.StockName,
		StockCode: req.IsinCode,
		ModelType: string(req.ModelType),
	}, start, err)
	return res, err
}

// Predict runs a trained model for the first selected file.
func (s *MLService) Predict(ctx context.Context, selected []model.CSVFile, modelType model.ModelType) (model.RawResult, error) {
	if len(selected) == 0 {
		return nil, validator.Invalid(validator.MsgSelectFile)
	}
	file := selected[0]

	req := model.PredictRequest{IsinCode: file.StockCode, ModelType: modelType}
	if err := validator.ValidatePredictRequest(&req); err != nil {
		return nil, err
	}

	ctx, span := startAction(ctx, audit.ActionPredict,
		attribute.String("stock.code", req.IsinCode),
		attribute.String("ml.model_type", string(req.ModelType)))
	defer span.End()

	start := time.Now()
	res, err := s.client.Predict(ctx, req)
	s.record(ctx, audit.Event{
		Action:    audit.ActionPredict,
		StockName: file.StockName,
		StockCode: req.IsinCode,
		ModelType: string(req.ModelType),
	}, start, err)
	return res, err
}

// startAction opens the span that parents an action's backend call and
// whose trace id goes into the audit event.
func startAction(ctx context.Context, action string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, "ml "+action, trace.WithAttributes(attrs...))
}

// record logs the outcome of an action and publishes it. Publishing
// failures are logged and never change the action's result.
func (s *MLService) record(ctx context.Context, event audit.Event, start time.Time, err error) {
	if err != nil {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	event.Success = err == nil
	event.DurationMs = time.Since(start).Milliseconds()
	event.TraceID = tracing.TraceID(ctx)
	event.Timestamp = time.Now()

	fields := []zap.Field{
		zap.String("action", event.Action),
		zap.String("stock_code", event.StockCode),
		zap.String("model_type", event.ModelType),
		zap.Int64("duration_ms", event.DurationMs),
	}
	if err != nil {
		event.Error = err.Error()
		s.logger.Warn("ML action failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("ML action completed", fields...)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if pubErr := s.publisher.Publish(pubCtx, event); pubErr != nil {
		s.logger.Warn("Failed to publish audit event", zap.Error(pubErr))
	}
}
