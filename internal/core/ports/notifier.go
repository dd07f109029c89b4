package ports

import (
	"context"

	"go.trai.ch/relay/internal/core/domain"
)

// Notifier posts a run summary to an external messaging endpoint.
// Implementations are best-effort: one attempt, no retries.
//
//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	Notify(ctx context.Context, summary *domain.RunSummary) error
}
