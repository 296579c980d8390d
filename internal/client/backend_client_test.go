package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*BackendClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBackendClient(srv.URL+"/", 2*time.Second, 2*time.Second, zap.NewNop()), srv
}

func TestGetStockPriceInfo_SendsQueryAndAcceptHeader(t *testing.T) {
	var got *http.Request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`{"response":{"body":{"items":{"item":[{"basDt":"20240102","itmsNm":"Samsung","clpr":"100"}]},"totalCount":1}}}`))
	})

	res, err := c.GetStockPriceInfo(context.Background(), model.SearchRequest{StockName: "Samsung", NumOfRows: 90})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, PathStockPrice, got.URL.Path)
	assert.Equal(t, "Samsung", got.URL.Query().Get("itmsNm"))
	assert.Equal(t, "1", got.URL.Query().Get("pageNo"))
	assert.Equal(t, "90", got.URL.Query().Get("numOfRows"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))

	require.Len(t, res.Items, 1)
	assert.Equal(t, "20240102", res.Items[0].BasDt)
	assert.Equal(t, 1, res.TotalCount)
}

func TestGetStockPriceInfo_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "non-2xx with valid body",
			status: http.StatusInternalServerError,
			body:   `{"response":{"body":{"items":{"item":[]}}}}`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusInternalServerError, se.Code)
				assert.True(t, IsStatus(err, http.StatusInternalServerError))
				assert.False(t, errors.Is(err, ErrBadData))
			},
		},
		{
			name:   "missing nested list",
			status: http.StatusOK,
			body:   `{"response":{"body":{"totalCount":0}}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrBadData)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrBadData)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetStockPriceInfo(context.Background(), model.SearchRequest{StockName: "x", NumOfRows: 10})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGetStockPriceInfo_EmptyListIsSuccess(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"body":{"items":{"item":[]},"totalCount":0}}}`))
	})

	res, err := c.GetStockPriceInfo(context.Background(), model.SearchRequest{StockName: "nothing", NumOfRows: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestGetStockPriceInfo_TransportError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.GetStockPriceInfo(context.Background(), model.SearchRequest{StockName: "x", NumOfRows: 10})
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
	assert.False(t, errors.Is(err, ErrBadData))
}

func TestListCSVFiles(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathCSVList, r.URL.Path)
		w.Write([]byte(`{"success":true,"message":"ok","count":1,"files":[
			{"filename":"005930.csv","path":"/data/005930.csv","size_bytes":2048,
			 "created_at":"2024-01-02","stock_code":"KR7005930003","stock_name":"Samsung"}]}`))
	})

	files, count, err := c.ListCSVFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []model.CSVFile{{
		Filename:  "005930.csv",
		Path:      "/data/005930.csv",
		SizeBytes: 2048,
		CreatedAt: "2024-01-02",
		StockCode: "KR7005930003",
		StockName: "Samsung",
	}}, files)
}

func TestListCSVFiles_UnsuccessfulPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"storage offline"}`))
	})

	_, _, err := c.ListCSVFiles(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "storage offline", err.Error())
}

func TestSaveStockDataCSV(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathCSVSave, r.URL.Path)
		assert.Equal(t, "삼성전자", r.URL.Query().Get("itmsNm"))
		w.Write([]byte(`{"success":true}`))
	})

	res, err := c.SaveStockDataCSV(context.Background(), model.GenerateCSVRequest{StockName: "삼성전자"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(res))
}

func TestTrainModel_SendsParams(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathTrain, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "KR7005930003", q.Get("isin_code"))
		assert.Equal(t, "rnn", q.Get("model_type"))
		assert.Equal(t, "3", q.Get("time_steps"))
		assert.Equal(t, "50", q.Get("epochs"))
		assert.Equal(t, "32", q.Get("batch_size"))
		assert.Equal(t, "0.2", q.Get("validation_split"))
		w.Write([]byte(`{"loss":0.01}`))
	})

	res, err := c.TrainModel(context.Background(), model.TrainRequest{
		IsinCode:  "KR7005930003",
		ModelType: model.ModelRNN,
		Params:    model.DefaultTrainParams(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"loss":0.01}`, string(res))
}

func TestPredict_PostsToCodePath(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ml/predict/KR7005930003", r.URL.Path)
		assert.Equal(t, "lstm", r.URL.Query().Get("model_type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[1,2,3]`))
	})

	res, err := c.Predict(context.Background(), model.PredictRequest{IsinCode: "KR7005930003", ModelType: model.ModelLSTM})
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(res))
}
