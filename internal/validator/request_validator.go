// Package validator checks user input before any backend call is made.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/anytimesk/stock-ml-front-end/internal/model"
)

// ErrValidation is wrapped by every error this package returns.
var ErrValidation = errors.New("validation failed")

// User-facing messages.
const (
	MsgStockNameRequired = "Enter a stock name."
	MsgRowCountInvalid   = "Choose a row count of 10, 90, 180, 365 or 730."
	MsgSelectFile        = "Select a CSV file first."
	MsgModelTypeInvalid  = "Choose LSTM or RNN."
	MsgStockCodeMissing  = "The selected file has no stock code."
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Invalid wraps a user message with ErrValidation.
func Invalid(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// Message returns the user message of a validation error.
func Message(err error) string {
	return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
}

// ValidateSearchRequest trims the name and checks both fields.
func ValidateSearchRequest(req *model.SearchRequest) error {
	req.StockName = strings.TrimSpace(req.StockName)
	return check(req, map[string]string{
		"StockName": MsgStockNameRequired,
		"NumOfRows": MsgRowCountInvalid,
	})
}

// ValidateGenerateCSVRequest trims the name and requires it.
func ValidateGenerateCSVRequest(req *model.GenerateCSVRequest) error {
	req.StockName = strings.TrimSpace(req.StockName)
	return check(req, map[string]string{
		"StockName": MsgStockNameRequired,
	})
}

// ValidateTrainRequest checks the code, model type and hyperparameters.
func ValidateTrainRequest(req *model.TrainRequest) error {
	if err := check(req, map[string]string{
		"IsinCode":  MsgStockCodeMissing,
		"ModelType": MsgModelTypeInvalid,
	}); err != nil {
		return err
	}
	return ValidateTrainParams(req.Params)
}

// ValidatePredictRequest checks the code and model type.
func ValidatePredictRequest(req *model.PredictRequest) error {
	return check(req, map[string]string{
		"IsinCode":  MsgStockCodeMissing,
		"ModelType": MsgModelTypeInvalid,
	})
}

// ValidateTrainParams checks the training hyperparameters.
func ValidateTrainParams(p model.TrainParams) error {
	if err := instance().Struct(p); err != nil {
		return fmt.Errorf("%w: invalid training parameters: %v", ErrValidation, err)
	}
	return nil
}

// check runs struct validation and maps the first failing field to its
// user message.
func check(v interface{}, messages map[string]string) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := messages[fieldErrs[0].Field()]; ok {
			return Invalid(msg)
		}
		return Invalid(fmt.Sprintf("invalid %s", fieldErrs[0].Field()))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
