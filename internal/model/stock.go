package model

import (
	"bytes"
	"encoding/json"
)

// PriceRecord is one trading day for one security as returned by the
// stock price service. All values arrive as strings.
type PriceRecord struct {
	BasDt      string `json:"basDt"`      // base date, YYYYMMDD
	SrtnCd     string `json:"srtnCd"`     // short code
	IsinCd     string `json:"isinCd"`     // ISIN
	ItmsNm     string `json:"itmsNm"`     // security name
	MrktCtg    string `json:"mrktCtg"`    // market category
	Clpr       string `json:"clpr"`       // close
	Vs         string `json:"vs"`         // change vs prior day
	FltRt      string `json:"fltRt"`      // change rate in percent
	Mkp        string `json:"mkp"`        // open
	Hipr       string `json:"hipr"`       // high
	Lopr       string `json:"lopr"`       // low
	Trqu       string `json:"trqu"`       // volume
	TrPrc      string `json:"trPrc"`      // trading value
	LstgStCnt  string `json:"lstgStCnt"`  // listed shares
	MrktTotAmt string `json:"mrktTotAmt"` // market capitalisation
}

// Field returns the raw value stored under a JSON key.
func (r PriceRecord) Field(key string) string {
	switch key {
	case "basDt":
		return r.BasDt
	case "srtnCd":
		return r.SrtnCd
	case "isinCd":
		return r.IsinCd
	case "itmsNm":
		return r.ItmsNm
	case "mrktCtg":
		return r.MrktCtg
	case "clpr":
		return r.Clpr
	case "vs":
		return r.Vs
	case "fltRt":
		return r.FltRt
	case "mkp":
		return r.Mkp
	case "hipr":
		return r.Hipr
	case "lopr":
		return r.Lopr
	case "trqu":
		return r.Trqu
	case "trPrc":
		return r.TrPrc
	case "lstgStCnt":
		return r.LstgStCnt
	case "mrktTotAmt":
		return r.MrktTotAmt
	}
	return ""
}

// StockResponse is the envelope of GET /stock/getStockPriceInfo.
type StockResponse struct {
	Response *struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body *struct {
			Items      *PriceItems `json:"items"`
			NumOfRows  int         `json:"numOfRows"`
			PageNo     int         `json:"pageNo"`
			TotalCount int         `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// PriceItems holds the nested item list. The backend sends a bare object
// instead of an array when there is exactly one row, and an empty string
// instead of an object when there are none.
type PriceItems struct {
	Item    []PriceRecord
	Present bool
}

// UnmarshalJSON accepts {"item": [...]}, {"item": {...}} and "".
func (p *PriceItems) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	var raw struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	item := bytes.TrimSpace(raw.Item)
	if len(item) == 0 || bytes.Equal(item, []byte("null")) {
		return nil
	}

	if item[0] == '{' {
		var single PriceRecord
		if err := json.Unmarshal(item, &single); err != nil {
			return err
		}
		p.Item = []PriceRecord{single}
		p.Present = true
		return nil
	}

	var list []PriceRecord
	if err := json.Unmarshal(item, &list); err != nil {
		return err
	}
	p.Item = list
	p.Present = true
	return nil
}

// Items returns the item list and whether the nested path was present.
func (r *StockResponse) Items() ([]PriceRecord, bool) {
	if r == nil || r.Response == nil || r.Response.Body == nil || r.Response.Body.Items == nil {
		return nil, false
	}
	if !r.Response.Body.Items.Present {
		return nil, false
	}
	return r.Response.Body.Items.Item, true
}

// TotalCount returns body.totalCount, or zero when the body is missing.
func (r *StockResponse) TotalCount() int {
	if r == nil || r.Response == nil || r.Response.Body == nil {
		return 0
	}
	return r.Response.Body.TotalCount
}

// RowCounts lists the row-count choices offered by the search form.
var RowCounts = []int{10, 90, 180, 365, 730}

// SearchRequest is a validated price-history lookup.
type SearchRequest struct {
	StockName string `validate:"required"`
	NumOfRows int    `validate:"oneof=10 90 180 365 730"`
}
