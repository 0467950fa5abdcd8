package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lumapay/ratefeed/internal/config"
)

// MySQL is for connecting and inserting data to mysql.
type MySQL struct {
	DB  *sql.DB
	Cfg *config.MySQL
}

var mysql MySQL

// Go time gives Z00:00, mysql timestamp needs +00:00 for UTC.
const mysqlTimestamp = "2006-01-02T15:04:05.999+00:00"

// InitMySQL initializes mysql connection with configured values.
func InitMySQL(cfg *config.MySQL) (*MySQL, error) {
	if mysql.DB == nil {
		dataSourceName := cfg.User + ":" + cfg.Password + cfg.URL + "/" + cfg.Schema
		db, err := sql.Open("mysql",
			dataSourceName)
		if err != nil {
			return nil, err
		}
		db.SetConnMaxLifetime(time.Second * time.Duration(cfg.ConnMaxLifetimeSec))
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)

		var ctx context.Context
		if cfg.ReqTimeoutSec > 0 {
			timeoutCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ReqTimeoutSec)*time.Second)
			ctx = timeoutCtx
			defer cancel()
		} else {
			ctx = context.Background()
		}
		err = db.PingContext(ctx)
		if err != nil {
			return nil, err
		}
		mysql = MySQL{
			DB:  db,
			Cfg: cfg,
		}
	}
	return &mysql, nil
}

// GetMySQL returns already prepared mysql instance.
func GetMySQL() *MySQL {
	return &mysql
}

// UpsertSnapshots batch upserts input snapshot data to database.
// live_rate is keyed unique on (base, quote, source), so a repeated triple
// replaces the stored row instead of duplicating it.
func (m *MySQL) UpsertSnapshots(appCtx context.Context, data []Snapshot) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO live_rate(base, quote, source, price, change_24h, high_24h, low_24h, volume_24h, market_cap, fallback, last_updated) VALUES ")
	for i, s := range data {
		if i != 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("(\"%v\", \"%v\", \"%v\", %v, %v, %v, %v, %v, %v, %v, \"%v\")", s.Base, s.Quote, s.Source, s.Price, s.Change24h, s.High24h, s.Low24h, s.Volume24h, s.MarketCap, s.Fallback, s.LastUpdated.Format(mysqlTimestamp)))
	}
	sb.WriteString(" ON DUPLICATE KEY UPDATE price=VALUES(price), change_24h=VALUES(change_24h), high_24h=VALUES(high_24h), low_24h=VALUES(low_24h), volume_24h=VALUES(volume_24h), market_cap=VALUES(market_cap), fallback=VALUES(fallback), last_updated=VALUES(last_updated)")
	var ctx context.Context
	if m.Cfg.ReqTimeoutSec > 0 {
		timeoutCtx, cancel := context.WithTimeout(appCtx, time.Duration(m.Cfg.ReqTimeoutSec)*time.Second)
		ctx = timeoutCtx
		defer cancel()
	} else {
		ctx = context.Background()
	}
	_, err := m.DB.ExecContext(ctx, sb.String())
	if err != nil {
		return err
	}
	return nil
}

// AppendHistory batch inserts input history point data to database.
// rate_history is append-only, rows are never updated or deleted here.
func (m *MySQL) AppendHistory(appCtx context.Context, data []HistoryPoint) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO rate_history(base, quote, price, high, low, volume, rate_interval, timestamp, created_at) VALUES ")
	for i, p := range data {
		if i != 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("(\"%v\", \"%v\", %v, %v, %v, %v, \"%v\", \"%v\", \"%v\")", p.Base, p.Quote, p.Price, p.High, p.Low, p.Volume, p.Interval, p.Timestamp.Format(mysqlTimestamp), time.Now().UTC().Format(mysqlTimestamp)))
	}
	var ctx context.Context
	if m.Cfg.ReqTimeoutSec > 0 {
		timeoutCtx, cancel := context.WithTimeout(appCtx, time.Duration(m.Cfg.ReqTimeoutSec)*time.Second)
		ctx = timeoutCtx
		defer cancel()
	} else {
		ctx = context.Background()
	}
	_, err := m.DB.ExecContext(ctx, sb.String())
	if err != nil {
		return err
	}
	return nil
}
