package config

const (
	// SpotExchangeRESTBaseURL is the spot exchange base REST url.
	SpotExchangeRESTBaseURL = "https://api.binance.com/api/v3/"

	// AggregatorRESTBaseURL is the market data aggregator base REST url.
	AggregatorRESTBaseURL = "https://api.coingecko.com/api/v3/"

	// FiatProviderRESTBaseURL is the fiat rate provider base REST url.
	// Free tier serves EUR based rate tables only.
	FiatProviderRESTBaseURL = "http://data.fixer.io/api/"
)

// Config contains config values for the app.
// Struct values are loaded from user defined JSON config file.
type Config struct {
	Providers  []Provider `json:"providers"`
	Connection Connection `json:"connection"`
	Scheduler  Scheduler  `json:"scheduler"`
	Fee        Fee        `json:"fee"`
	Log        Log        `json:"log"`
}

// Provider contains config values for different rate providers.
// Name is one of spot_exchange, aggregator, fiat_provider.
type Provider struct {
	Name      string   `json:"name"`
	AccessKey string   `json:"access_key"`
	Storages  []string `json:"storages"`
}

// Scheduler contains config values for the ingestion timers.
// Crypto class providers run on the fast timer, fiat on the slow one.
type Scheduler struct {
	FastIntervalSec int    `json:"fast_interval_sec"`
	SlowIntervalSec int    `json:"slow_interval_sec"`
	FastInterval    string `json:"fast_interval"`
	SlowInterval    string `json:"slow_interval"`
}

// Fee contains config values for the money transfer fee computation.
// MinFloor maps a currency code to its minimum fee floor. The same numeric
// default is used for USD and EUR until product clarifies whether the floor
// should be currency equivalent.
type Fee struct {
	Percent  float64            `json:"percent"`
	MinFloor map[string]float64 `json:"min_floor"`
}

// Connection contains config values for different API and storage connections.
type Connection struct {
	REST   REST   `json:"rest"`
	Memory Memory `json:"memory"`
	MySQL  MySQL  `json:"mysql"`
	ES     ES     `json:"elastic_search"`
}

// REST contains config values for REST API connection.
type REST struct {
	ReqTimeoutSec       int `json:"request_timeout_sec"`
	MaxIdleConns        int `json:"max_idle_conns"`
	MaxIdleConnsPerHost int `json:"max_idle_conns_per_host"`
}

// Memory contains config values for the in-memory store.
type Memory struct {
	MaxHistoryPoints int `json:"max_history_points"`
}

// MySQL contains config values for mysql.
type MySQL struct {
	User               string `json:"user"`
	Password           string `json:"password"`
	URL                string `json:"URL"`
	Schema             string `json:"schema"`
	ReqTimeoutSec      int    `json:"request_timeout_sec"`
	ConnMaxLifetimeSec int    `json:"conn_max_lifetime_sec"`
	MaxOpenConns       int    `json:"max_open_conns"`
	MaxIdleConns       int    `json:"max_idle_conns"`
}

// ES contains config values for elastic search.
type ES struct {
	Addresses           []string `json:"addresses"`
	Username            string   `json:"username"`
	Password            string   `json:"password"`
	SnapshotIndexName   string   `json:"snapshot_index_name"`
	HistoryIndexName    string   `json:"history_index_name"`
	ReqTimeoutSec       int      `json:"request_timeout_sec"`
	MaxIdleConns        int      `json:"max_idle_conns"`
	MaxIdleConnsPerHost int      `json:"max_idle_conns_per_host"`
}

// Log contains config values for logging.
type Log struct {
	Level    string `json:"level"`
	FilePath string `json:"file_path"`
}
