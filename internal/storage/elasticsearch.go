package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v7"
	jsoniter "github.com/json-iterator/go"
	"github.com/lumapay/ratefeed/internal/config"
)

// ElasticSearch is for connecting and indexing data to elastic search.
type ElasticSearch struct {
	ES                *elasticsearch.Client
	SnapshotIndexName string
	HistoryIndexName  string
	Cfg               *config.ES
}

var elasticSearch ElasticSearch

// InitElasticSearch initializes elastic search connection with configured values.
func InitElasticSearch(cfg *config.ES) (*ElasticSearch, error) {
	if elasticSearch.ES == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxIdleConns = cfg.MaxIdleConns
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
		esCfg := elasticsearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Transport: t,
		}
		es, err := elasticsearch.NewClient(esCfg)
		if err != nil {
			return nil, err
		}
		var ctx context.Context
		if cfg.ReqTimeoutSec > 0 {
			timeoutCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ReqTimeoutSec)*time.Second)
			ctx = timeoutCtx
			defer cancel()
		} else {
			ctx = context.Background()
		}
		_, err = es.Ping(es.Ping.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		elasticSearch = ElasticSearch{
			ES:                es,
			SnapshotIndexName: cfg.SnapshotIndexName,
			HistoryIndexName:  cfg.HistoryIndexName,
			Cfg:               cfg,
		}
	}
	return &elasticSearch, nil
}

// GetElasticSearch returns already prepared elastic search instance.
func GetElasticSearch() *ElasticSearch {
	return &elasticSearch
}

// esSnapshot holds live snapshot data which will be sent to elastic search.
type esSnapshot struct {
	Base        string    `json:"base"`
	Quote       string    `json:"quote"`
	Source      Source    `json:"source"`
	Price       float64   `json:"price"`
	Change24h   float64   `json:"change_24h"`
	High24h     float64   `json:"high_24h"`
	Low24h      float64   `json:"low_24h"`
	Volume24h   float64   `json:"volume_24h"`
	MarketCap   float64   `json:"market_cap"`
	Fallback    bool      `json:"fallback"`
	LastUpdated time.Time `json:"last_updated"`
}

// esHistoryPoint holds history point data which will be sent to elastic search.
type esHistoryPoint struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Price     float64   `json:"price"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Volume    float64   `json:"volume"`
	Interval  string    `json:"interval"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertSnapshots batch indexes input snapshot data to elastic search.
// Document id is base_quote_source, so a repeated triple replaces the stored
// document instead of duplicating it.
func (e *ElasticSearch) UpsertSnapshots(appCtx context.Context, data []Snapshot) error {
	var buf bytes.Buffer
	for _, s := range data {
		meta := []byte(fmt.Sprintf(`{"index":{"_id":"%v_%v_%v"}}%s`, s.Base, s.Quote, s.Source, "\n"))
		ed := esSnapshot{
			Base:        s.Base,
			Quote:       s.Quote,
			Source:      s.Source,
			Price:       s.Price,
			Change24h:   s.Change24h,
			High24h:     s.High24h,
			Low24h:      s.Low24h,
			Volume24h:   s.Volume24h,
			MarketCap:   s.MarketCap,
			Fallback:    s.Fallback,
			LastUpdated: s.LastUpdated,
		}
		esBytes, err := jsoniter.Marshal(ed)
		if err != nil {
			return err
		}
		esBytes = append(esBytes, "\n"...)
		buf.Grow(len(meta) + len(esBytes))
		buf.Write(meta)
		buf.Write(esBytes)
	}
	return e.bulk(appCtx, e.SnapshotIndexName, &buf)
}

// AppendHistory batch inserts input history point data to elastic search.
func (e *ElasticSearch) AppendHistory(appCtx context.Context, data []HistoryPoint) error {
	var buf bytes.Buffer
	for _, p := range data {
		meta := []byte(fmt.Sprintf(`{"create":{}}%s`, "\n"))
		ed := esHistoryPoint{
			Base:      p.Base,
			Quote:     p.Quote,
			Price:     p.Price,
			High:      p.High,
			Low:       p.Low,
			Volume:    p.Volume,
			Interval:  p.Interval,
			Timestamp: p.Timestamp,
			CreatedAt: time.Now().UTC(),
		}
		esBytes, err := jsoniter.Marshal(ed)
		if err != nil {
			return err
		}
		esBytes = append(esBytes, "\n"...)
		buf.Grow(len(meta) + len(esBytes))
		buf.Write(meta)
		buf.Write(esBytes)
	}
	return e.bulk(appCtx, e.HistoryIndexName, &buf)
}

func (e *ElasticSearch) bulk(appCtx context.Context, index string, buf *bytes.Buffer) error {
	var ctx context.Context
	if e.Cfg.ReqTimeoutSec > 0 {
		timeoutCtx, cancel := context.WithTimeout(appCtx, time.Duration(e.Cfg.ReqTimeoutSec)*time.Second)
		ctx = timeoutCtx
		defer cancel()
	} else {
		ctx = context.Background()
	}
	resp, err := e.ES.Bulk(bytes.NewReader(buf.Bytes()), e.ES.Bulk.WithIndex(index), e.ES.Bulk.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("code : %v, status : %v", resp.StatusCode, resp.Status())
	}
	_, err = io.Copy(io.Discard, resp.Body)
	if err != nil {
		return err
	}
	return nil
}
