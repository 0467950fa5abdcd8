package provider

import (
	"context"

	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Provider fetches raw data from one upstream API and maps it into
// canonical normalized rates. Implementations own their provider specific
// symbol tables and never panic past their own boundary; a failed cycle
// surfaces as an error which the scheduler turns into an empty batch for
// that provider, leaving sibling providers untouched.
type Provider interface {
	Name() string
	Source() storage.Source
	FetchRates(ctx context.Context) ([]storage.Rate, error)
}

// logErrStack logs error with stack trace.
func logErrStack(err error) {
	log.Error().Stack().Err(errors.WithStack(err)).Msg("")
}
