// Package client talks to the stock price and ML REST backend.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/tracing"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 32 << 20

// Backend endpoint paths.
const (
	PathStockPrice = "/stock/getStockPriceInfo"
	PathCSVList    = "/ml/getStockData"
	PathCSVSave    = "/ml/saveStockDataCSV"
	PathTrain      = "/ml/trainModel"
	PathPredict    = "/ml/predict/"
)

// PriceResult is a successful price lookup. Items may be empty.
type PriceResult struct {
	Items      []model.PriceRecord
	TotalCount int
}

// BackendClient handles communication with the stock and ML backend.
type BackendClient struct {
	baseURL     string
	httpClient  *http.Client
	trainClient *http.Client
	logger      *zap.Logger
}

// NewBackendClient creates a new backend client. Training requests use
// trainTimeout, everything else uses timeout.
func NewBackendClient(baseURL string, timeout, trainTimeout time.Duration, logger *zap.Logger) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		trainClient: &http.Client{
			Timeout: trainTimeout,
		},
		logger: logger,
	}
}

// GetStockPriceInfo fetches the first page of daily prices for a name.
func (c *BackendClient) GetStockPriceInfo(ctx context.Context, req model.SearchRequest) (*PriceResult, error) {
	query := url.Values{}
	query.Set("itmsNm", req.StockName)
	query.Set("pageNo", "1")
	query.Set("numOfRows", strconv.Itoa(req.NumOfRows))

	body, err := c.do(ctx, c.httpClient, http.MethodGet, PathStockPrice, query)
	if err != nil {
		return nil, err
	}

	var resp model.StockResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("Failed to decode stock price response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrBadData, err)
	}

	items, ok := resp.Items()
	if !ok {
		c.logger.Warn("Stock price response has no item list", zap.String("itmsNm", req.StockName))
		return nil, fmt.Errorf("%w: response.body.items.item is missing", ErrBadData)
	}

	return &PriceResult{Items: items, TotalCount: resp.TotalCount()}, nil
}

// ListCSVFiles fetches the generated CSV files.
func (c *BackendClient) ListCSVFiles(ctx context.Context) ([]model.CSVFile, int, error) {
	body, err := c.do(ctx, c.httpClient, http.MethodGet, PathCSVList, nil)
	if err != nil {
		return nil, 0, err
	}

	var resp model.CSVListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("Failed to decode CSV list response", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: %v", ErrBadData, err)
	}
	if !resp.Success {
		return nil, 0, &APIError{Endpoint: PathCSVList, Message: resp.Message}
	}

	files := make([]model.CSVFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, f.ToCSVFile())
	}
	return files, resp.Count, nil
}

// SaveStockDataCSV asks the backend to export a security's history to CSV.
func (c *BackendClient) SaveStockDataCSV(ctx context.Context, req model.GenerateCSVRequest) (model.RawResult, error) {
	query := url.Values{}
	query.Set("itmsNm", req.StockName)

	body, err := c.do(ctx, c.httpClient, http.MethodGet, PathCSVSave, query)
	if err != nil {
		return nil, err
	}
	return model.RawResult(body), nil
}

// TrainModel starts training and returns the backend's result verbatim.
func (c *BackendClient) TrainModel(ctx context.Context, req model.TrainRequest) (model.RawResult, error) {
	query := url.Values{}
	query.Set("isin_code", req.IsinCode)
	query.Set("model_type", string(req.ModelType))
	query.Set("time_steps", strconv.Itoa(req.Params.TimeSteps))
	query.Set("epochs", strconv.Itoa(req.Params.Epochs))
	query.Set("batch_size", strconv.Itoa(req.Params.BatchSize))
	query.Set("validation_split", strconv.FormatFloat(req.Params.ValidationSplit, 'f', -1, 64))

	body, err := c.do(ctx, c.trainClient, http.MethodPost, PathTrain, query)
	if err != nil {
		return nil, err
	}
	return model.RawResult(body), nil
}

// Predict runs a trained model and returns the backend's result verbatim.
func (c *BackendClient) Predict(ctx context.Context, req model.PredictRequest) (model.RawResult, error) {
	query := url.Values{}
	query.Set("model_type", string(req.ModelType))

	body, err := c.do(ctx, c.httpClient, http.MethodPost, PathPredict+url.PathEscape(req.IsinCode), query)
	if err != nil {
		return nil, err
	}
	return model.RawResult(body), nil
}

// do sends one request and returns the body of a 2xx response.
func (c *BackendClient) do(ctx context.Context, hc *http.Client, method, path string, query url.Values) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "backend "+method+" "+path)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Backend returned unexpected status",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode))
		err := &StatusError{Endpoint: path, Code: resp.StatusCode, Status: resp.Status}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	return body, nil
}
