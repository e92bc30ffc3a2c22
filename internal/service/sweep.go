package service

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

const sweepBatchSize = 100

// SweepService polls providers for transactions stuck in PENDING past the
// grace period (typically because the request path timed out) and feeds any
// terminal verdict through the reconciler.
type SweepService struct {
	txRepo       *repository.PaymentTxRepository
	disbRepo     *repository.DisbursementRepository
	reconciler   *Reconciler
	collections  map[domain.Gateway]gateway.CollectionProvider
	disbProvider gateway.DisbursementProvider
	gracePeriod  time.Duration
}

func NewSweepService(
	txRepo *repository.PaymentTxRepository,
	disbRepo *repository.DisbursementRepository,
	reconciler *Reconciler,
	collections map[domain.Gateway]gateway.CollectionProvider,
	disbProvider gateway.DisbursementProvider,
	gracePeriod time.Duration,
) *SweepService {
	return &SweepService{
		txRepo:       txRepo,
		disbRepo:     disbRepo,
		reconciler:   reconciler,
		collections:  collections,
		disbProvider: disbProvider,
		gracePeriod:  gracePeriod,
	}
}

// RunOnce sweeps both collection and disbursement backlogs.
func (s *SweepService) RunOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.gracePeriod)

	pending, err := s.txRepo.ListPendingOlderThan(cutoff, sweepBatchSize)
	if err != nil {
		log.Printf("[sweep] list pending collections: %v", err)
	}
	for _, t := range pending {
		provider, ok := s.collections[t.Gateway]
		if !ok {
			continue
		}
		status, err := provider.QueryStatus(ctx, t.ExternalID)
		if err != nil {
			log.Printf("[sweep] query %s ref=%s: %v", t.Gateway, t.ReferenceID, err)
			continue
		}
		if !status.Outcome.Terminal() {
			continue
		}
		err = s.reconciler.ApplyCollection(ctx, CollectionOutcome{
			Gateway:                t.Gateway,
			ExternalID:             t.ExternalID,
			Outcome:                status.Outcome,
			FinancialTransactionID: status.FinancialTransactionID,
			Reason:                 status.Reason,
			RawBody:                status.RawBody,
			Actor:                  domain.ActorSweep,
		})
		if err != nil && err != domain.ErrAlreadyProcessed {
			log.Printf("[sweep] apply collection ref=%s: %v", t.ReferenceID, err)
		}
	}

	pendingDisb, err := s.disbRepo.ListPendingOlderThan(cutoff, sweepBatchSize)
	if err != nil {
		log.Printf("[sweep] list pending disbursements: %v", err)
	}
	for _, d := range pendingDisb {
		status, err := s.disbProvider.QueryStatus(ctx, d.ReferenceID)
		if err != nil {
			log.Printf("[sweep] query disbursement ref=%s: %v", d.ReferenceID, err)
			continue
		}
		if !status.Outcome.Terminal() {
			continue
		}
		err = s.reconciler.ApplyDisbursement(ctx, DisbursementOutcome{
			Gateway:                s.disbProvider.Name(),
			ReferenceID:            d.ReferenceID,
			Outcome:                status.Outcome,
			FinancialTransactionID: status.FinancialTransactionID,
			Reason:                 status.Reason,
			RawBody:                status.RawBody,
			Actor:                  domain.ActorSweep,
		})
		if err != nil && err != domain.ErrAlreadyProcessed {
			log.Printf("[sweep] apply disbursement ref=%s: %v", d.ReferenceID, err)
		}
	}
}

// Schedule registers the sweep on a gocron scheduler.
func (s *SweepService) Schedule(scheduler gocron.Scheduler, interval time.Duration) error {
	_, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			s.RunOnce(ctx)
		}),
	)
	return err
}
