// Package service validates user actions and forwards them to the backend.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/client"
	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/validator"
)

// ErrValidation marks input rejected before any network call.
var ErrValidation = validator.ErrValidation

// StockClient is the part of the backend the search page uses.
type StockClient interface {
	GetStockPriceInfo(ctx context.Context, req model.SearchRequest) (*client.PriceResult, error)
}

// SearchService handles price history lookups.
type SearchService struct {
	client StockClient
	logger *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(client StockClient, logger *zap.Logger) *SearchService {
	return &SearchService{
		client: client,
		logger: logger,
	}
}

// Search validates the request and fetches the price history.
func (s *SearchService) Search(ctx context.Context, stockName string, numOfRows int) (*client.PriceResult, error) {
	req := model.SearchRequest{StockName: stockName, NumOfRows: numOfRows}
	if err := validator.ValidateSearchRequest(&req); err != nil {
		return nil, err
	}

	res, err := s.client.GetStockPriceInfo(ctx, req)
	if err != nil {
		s.logger.Warn("Stock search failed",
			zap.String("itmsNm", req.StockName),
			zap.Int("numOfRows", req.NumOfRows),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Stock search completed",
		zap.String("itmsNm", req.StockName),
		zap.Int("items", len(res.Items)),
		zap.Int("totalCount", res.TotalCount))
	return res, nil
}
