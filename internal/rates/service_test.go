package rates

import (
	"testing"
	"time"

	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(snapshots ...storage.Snapshot) (*Service, *storage.Memory) {
	mem := storage.NewMemory(0)
	mem.UpsertSnapshots(snapshots)
	svc := NewService(mem, &config.Fee{
		Percent:  0.015,
		MinFloor: map[string]float64{"USD": 5, "EUR": 5},
	})
	return svc, mem
}

func TestConvertDirect(t *testing.T) {
	svc, _ := newTestService(storage.Snapshot{
		Base: "EUR", Quote: "USD", Source: storage.SourceFiatProvider,
		Price: 1.08, LastUpdated: time.Now().UTC(),
	})

	got, err := svc.Convert("EUR", "USD", 100)
	require.NoError(t, err)
	assert.Equal(t, 1.08, got.Rate)
	assert.Equal(t, 108.0, got.Result)
}

func TestConvertInverse(t *testing.T) {
	svc, _ := newTestService(storage.Snapshot{
		Base: "EUR", Quote: "USD", Source: storage.SourceFiatProvider,
		Price: 1.08, LastUpdated: time.Now().UTC(),
	})

	got, err := svc.Convert("USD", "EUR", 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.9259, got.Rate, 1e-4)
	assert.InDelta(t, 92.59, got.Result, 1e-2)

	// The inverse rate is the exact reciprocal of the direct one.
	direct, err := svc.Convert("EUR", "USD", 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 1/direct.Rate, got.Rate, 1e-9)
}

func TestConvertMostRecentSourceWins(t *testing.T) {
	t0 := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(
		storage.Snapshot{Base: "BTC", Quote: "USD", Source: storage.SourceSpotExchange, Price: 43250.50, LastUpdated: t0},
		storage.Snapshot{Base: "BTC", Quote: "USD", Source: storage.SourceAggregator, Price: 43280.00, LastUpdated: t0.Add(time.Second)},
	)

	got, err := svc.Convert("BTC", "USD", 2)
	require.NoError(t, err)
	assert.Equal(t, 43280.00, got.Rate)
	assert.Equal(t, 86560.00, got.Result)
}

func TestConvertPairNotFound(t *testing.T) {
	svc, _ := newTestService(storage.Snapshot{
		Base: "EUR", Quote: "USD", Source: storage.SourceFiatProvider,
		Price: 1.08, LastUpdated: time.Now().UTC(),
	})

	got, err := svc.Convert("XYZ", "ABC", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateNotFound))
	assert.Zero(t, got.Rate)
	assert.Zero(t, got.Result)
}

func TestConvertSameCurrency(t *testing.T) {
	svc, _ := newTestService()

	got, err := svc.Convert("USD", "USD", 250)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Rate)
	assert.Equal(t, 250.0, got.Result)
}

func TestFeeAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		percent float64
		floor   float64
		want    float64
	}{
		{name: "percentage above floor", amount: 1000, percent: 0.015, floor: 5, want: 15},
		{name: "floor applies for small amount", amount: 100, percent: 0.015, floor: 5, want: 5},
		{name: "zero amount", amount: 0, percent: 0.015, floor: 5, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FeeAmount(tt.amount, tt.percent, tt.floor), 1e-9)
		})
	}
}

func TestFeeAmountMonotonic(t *testing.T) {
	prev := 0.0
	for amount := 0.0; amount <= 2000; amount += 7.5 {
		fee := FeeAmount(amount, 0.015, 5)
		assert.GreaterOrEqual(t, fee, prev)
		prev = fee
	}
}

func TestTransferFeePerCurrencyFloor(t *testing.T) {
	mem := storage.NewMemory(0)
	svc := NewService(mem, &config.Fee{
		Percent:  0.015,
		MinFloor: map[string]float64{"USD": 5, "EUR": 4.6},
	})

	assert.Equal(t, 5.0, svc.TransferFee(100, "USD"))
	assert.Equal(t, 4.6, svc.TransferFee(100, "EUR"))
	// Unconfigured currency falls back to the default floor.
	assert.Equal(t, DefaultMinFeeFloor, svc.TransferFee(100, "GBP"))
	assert.Equal(t, 30.0, svc.TransferFee(2000, "USD"))
}

func TestQuote(t *testing.T) {
	svc, _ := newTestService()

	q := svc.Quote(1000, "USD")
	assert.Equal(t, 15.0, q.Fee)
	assert.Equal(t, 1015.0, q.Total)

	q = svc.Quote(100, "USD")
	assert.Equal(t, 5.0, q.Fee)
	assert.Equal(t, 105.0, q.Total)
}

func TestLiveRatesAndRate(t *testing.T) {
	t0 := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc, mem := newTestService(
		storage.Snapshot{Base: "BTC", Quote: "USD", Source: storage.SourceSpotExchange, Price: 43250.50, LastUpdated: t0},
		storage.Snapshot{Base: "ETH", Quote: "USD", Source: storage.SourceSpotExchange, Price: 2250.00, LastUpdated: t0},
	)

	assert.Len(t, svc.LiveRates(""), 2)
	assert.Len(t, svc.LiveRates("BTC"), 1)

	// The live view always reflects the most recent successful write.
	mem.UpsertSnapshots([]storage.Snapshot{{Base: "BTC", Quote: "USD", Source: storage.SourceSpotExchange, Price: 43300.00, LastUpdated: t0.Add(time.Minute)}})
	s, ok := svc.Rate("BTC", "USD")
	require.True(t, ok)
	assert.Equal(t, 43300.00, s.Price)

	_, ok = svc.Rate("XYZ", "ABC")
	assert.False(t, ok)
}

func TestRateHistory(t *testing.T) {
	t0 := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc, mem := newTestService()
	mem.AppendHistory([]storage.HistoryPoint{{Base: "BTC", Quote: "USD", Price: 43250.50, Interval: "1m", Timestamp: t0}})
	mem.AppendHistory([]storage.HistoryPoint{{Base: "BTC", Quote: "USD", Price: 43300.00, Interval: "1m", Timestamp: t0.Add(time.Minute)}})

	points := svc.RateHistory("BTC", "USD", "1m", 10)
	require.Len(t, points, 2)
	assert.Equal(t, 43300.00, points[0].Price)
	assert.Equal(t, 43250.50, points[1].Price)
}

func TestTopCryptos(t *testing.T) {
	now := time.Now().UTC()
	svc, _ := newTestService(
		storage.Snapshot{Base: "BTC", Quote: "USD", Source: storage.SourceAggregator, Price: 43250.50, MarketCap: 8.46e11, LastUpdated: now},
		storage.Snapshot{Base: "ETH", Quote: "USD", Source: storage.SourceAggregator, Price: 2250.00, MarketCap: 2.70e11, LastUpdated: now},
		storage.Snapshot{Base: "SOL", Quote: "USD", Source: storage.SourceAggregator, Price: 145.00, MarketCap: 6.3e10, LastUpdated: now},
		storage.Snapshot{Base: "ADA", Quote: "USD", Source: storage.SourceAggregator, Price: 0.45, MarketCap: 1.6e10, LastUpdated: now},
		storage.Snapshot{Base: "DOGE", Quote: "USD", Source: storage.SourceAggregator, Price: 0.12, MarketCap: 1.7e10, LastUpdated: now},
	)

	top := svc.TopCryptos(3)
	require.Len(t, top, 3)
	assert.Equal(t, "BTC", top[0].Base)
	assert.Equal(t, "ETH", top[1].Base)
	assert.Equal(t, "SOL", top[2].Base)
}
