package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// HistoryFetcher is the part of the Primary client the remote ledger uses.
type HistoryFetcher interface {
	PaymentHistory(ctx context.Context) ([]model.Payment, error)
}

// RemoteLedger exposes the Primary's payment history as a PaymentStore.
type RemoteLedger struct {
	fetcher HistoryFetcher
}

func NewRemoteLedger(f HistoryFetcher) *RemoteLedger { return &RemoteLedger{fetcher: f} }

func (l *RemoteLedger) List(ctx context.Context) ([]model.Payment, error) {
	return l.fetcher.PaymentHistory(ctx)
}

func (l *RemoteLedger) FindMatching(ctx context.Context, id string) ([]model.Payment, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	return matchingPayments(all, id), nil
}

// NamedLedger labels a ledger source for logging.
type NamedLedger struct {
	Name  string
	Store PaymentStore
}

// CompositeLedger concatenates several payment sources in a fixed order.
// A source that fails is skipped with a warning: the payment history is a
// best-effort derivation source and an unavailable source only narrows
// what can be recovered.
type CompositeLedger struct {
	sources []NamedLedger
	log     *zap.Logger
}

func NewCompositeLedger(log *zap.Logger, sources ...NamedLedger) *CompositeLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &CompositeLedger{sources: sources, log: log}
}

// Sources returns the configured source names in consultation order.
func (l *CompositeLedger) Sources() []string {
	names := make([]string, 0, len(l.sources))
	for _, s := range l.sources {
		names = append(names, s.Name)
	}
	return names
}

func (l *CompositeLedger) List(ctx context.Context) ([]model.Payment, error) {
	out := []model.Payment{}
	for _, s := range l.sources {
		ps, err := s.Store.List(ctx)
		if err != nil {
			l.log.Warn("ledger source unavailable", zap.String("source", s.Name), zap.Error(err))
			continue
		}
		out = append(out, ps...)
	}
	return out, nil
}

func (l *CompositeLedger) FindMatching(ctx context.Context, id string) ([]model.Payment, error) {
	out := []model.Payment{}
	for _, s := range l.sources {
		ps, err := s.Store.FindMatching(ctx, id)
		if err != nil {
			l.log.Warn("ledger source unavailable",
				zap.String("source", s.Name), zap.String("booking_id", id), zap.Error(err))
			continue
		}
		out = append(out, ps...)
	}
	return out, nil
}
