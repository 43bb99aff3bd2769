package classifier

import (
	"time"

	"github.com/google/uuid"

	"github.com/mendhq/mend/pkg/events"
	"github.com/mendhq/mend/pkg/history"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/metrics"
	"github.com/mendhq/mend/pkg/types"
)

// Classifier turns raw diagnostic text into ClassifiedError records.
// Every call records to the history store and publishes error.detected,
// regardless of whether the error is auto-recoverable.
type Classifier struct {
	history *history.Store
	broker  *events.Broker
}

// New creates a classifier bound to the given history store and broker
func New(store *history.Store, broker *events.Broker) *Classifier {
	return &Classifier{
		history: store,
		broker:  broker,
	}
}

// Classify matches text against the taxonomy, first matching kind wins.
// Unmatched text degrades to an Unknown record so nothing is silently
// dropped. Classification never fails.
func (c *Classifier) Classify(text string, context map[string]string) *types.ClassifiedError {
	kind, extracted := match(text)

	profile := profiles[kind]
	cerr := &types.ClassifiedError{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		Kind:            kind,
		Severity:        profile.severity,
		Message:         text,
		Context:         mergeContext(context, extracted),
		AutoRecoverable: profile.autoRecoverable,
	}

	c.history.Record(cerr)
	metrics.ErrorsDetected.WithLabelValues(string(cerr.Kind), string(cerr.Severity)).Inc()

	logger := log.WithComponent("classifier")
	logger.Warn().
		Str("error_id", cerr.ID).
		Str("kind", string(cerr.Kind)).
		Str("severity", string(cerr.Severity)).
		Bool("auto_recoverable", cerr.AutoRecoverable).
		Msg(text)

	if c.broker != nil {
		c.broker.PublishError(events.EventErrorDetected, cerr, text)
	}

	return cerr
}

// match walks the ordered taxonomy and returns the first matching kind
// plus the context its extractor pulled from the text
func match(text string) (types.ErrorKind, map[string]string) {
	for _, kr := range taxonomy {
		for _, r := range kr.rules {
			m := r.pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			return kr.kind, r.extract(m)
		}
	}
	return types.ErrorKindUnknown, nil
}

func mergeContext(base, extracted map[string]string) map[string]string {
	if base == nil && extracted == nil {
		return nil
	}
	merged := make(map[string]string, len(base)+len(extracted))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extracted {
		merged[k] = v
	}
	return merged
}
