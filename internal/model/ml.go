package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CSVFile is a generated training CSV as listed by the ML service.
type CSVFile struct {
	Filename  string
	Path      string
	SizeBytes int64
	CreatedAt string
	StockCode string
	StockName string
}

// Field returns the raw value stored under a column key.
func (f CSVFile) Field(key string) string {
	switch key {
	case "filename":
		return f.Filename
	case "path":
		return f.Path
	case "sizeBytes":
		return strconv.FormatInt(f.SizeBytes, 10)
	case "createdAt":
		return f.CreatedAt
	case "stockCode":
		return f.StockCode
	case "stockName":
		return f.StockName
	}
	return ""
}

// CSVFileRaw is the wire form of a CSV file entry.
type CSVFileRaw struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
	StockCode string `json:"stock_code"`
	StockName string `json:"stock_name"`
}

// ToCSVFile maps the wire form onto the presentation record.
func (r CSVFileRaw) ToCSVFile() CSVFile {
	return CSVFile{
		Filename:  r.Filename,
		Path:      r.Path,
		SizeBytes: r.SizeBytes,
		CreatedAt: r.CreatedAt,
		StockCode: r.StockCode,
		StockName: r.StockName,
	}
}

// CSVListResponse is the envelope of GET /ml/getStockData.
type CSVListResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Count   int          `json:"count"`
	Files   []CSVFileRaw `json:"files"`
}

// ModelType selects the network trained or used for prediction.
type ModelType string

const (
	ModelLSTM ModelType = "lstm"
	ModelRNN  ModelType = "rnn"
)

// ParseModelType accepts "lstm" or "rnn" in any case.
func ParseModelType(s string) (ModelType, error) {
	switch ModelType(strings.ToLower(strings.TrimSpace(s))) {
	case ModelLSTM:
		return ModelLSTM, nil
	case ModelRNN:
		return ModelRNN, nil
	}
	return "", fmt.Errorf("unknown model type %q", s)
}

// Label is the display name of the model type.
func (m ModelType) Label() string {
	return strings.ToUpper(string(m))
}

// TrainParams are the fixed hyperparameters sent with a training request.
type TrainParams struct {
	TimeSteps       int     `mapstructure:"timeSteps" validate:"min=1"`
	Epochs          int     `mapstructure:"epochs" validate:"min=1"`
	BatchSize       int     `mapstructure:"batchSize" validate:"min=1"`
	ValidationSplit float64 `mapstructure:"validationSplit" validate:"gte=0,lt=1"`
}

// DefaultTrainParams mirrors the values the ML service was tuned with.
func DefaultTrainParams() TrainParams {
	return TrainParams{
		TimeSteps:       3,
		Epochs:          50,
		BatchSize:       32,
		ValidationSplit: 0.2,
	}
}

// TrainRequest asks the ML service to fit a model for one security.
type TrainRequest struct {
	IsinCode  string    `validate:"required"`
	ModelType ModelType `validate:"oneof=lstm rnn"`
	Params    TrainParams
}

// PredictRequest asks the ML service for a forecast with a trained model.
type PredictRequest struct {
	IsinCode  string    `validate:"required"`
	ModelType ModelType `validate:"oneof=lstm rnn"`
}

// GenerateCSVRequest asks the ML service to export price history to CSV.
type GenerateCSVRequest struct {
	StockName string `validate:"required"`
}

// RawResult is an opaque JSON document returned by the ML service.
type RawResult json.RawMessage

// Pretty renders the document indented, or as-is when it is not JSON.
func (r RawResult) Pretty() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r, "", "  "); err != nil {
		return string(r)
	}
	return buf.String()
}
