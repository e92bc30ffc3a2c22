package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// StubProvider is a no-op provider for development and tests. It records the
// requests it saw and answers status queries from a programmable outcome map.
type StubProvider struct {
	GatewayName domain.Gateway

	mu           sync.Mutex
	Collections  []CollectionRequest
	Transfers    []TransferRequest
	Outcomes     map[string]domain.TxStatus // externalID -> outcome for QueryStatus
	FailNext     error                      // returned once by the next provider call
}

func NewStubProvider(name domain.Gateway) *StubProvider {
	return &StubProvider{GatewayName: name, Outcomes: make(map[string]domain.TxStatus)}
}

func (s *StubProvider) Name() domain.Gateway {
	return s.GatewayName
}

func (s *StubProvider) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

func (s *StubProvider) RequestToPay(ctx context.Context, req CollectionRequest) (*CollectionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	s.Collections = append(s.Collections, req)
	return &CollectionResponse{
		ExternalID: req.ReferenceID,
		Status:     domain.TxPending,
		RawBody:    fmt.Sprintf(`{"stub":true,"ref":%q,"ts":%d}`, req.ReferenceID, time.Now().Unix()),
	}, nil
}

func (s *StubProvider) Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	s.Transfers = append(s.Transfers, req)
	return &TransferResponse{
		ExternalID: req.ReferenceID,
		Status:     domain.TxPending,
		RawBody:    fmt.Sprintf(`{"stub":true,"ref":%q,"ts":%d}`, req.ReferenceID, time.Now().Unix()),
	}, nil
}

func (s *StubProvider) QueryStatus(ctx context.Context, externalID string) (*StatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	outcome, ok := s.Outcomes[externalID]
	if !ok {
		outcome = domain.TxPending
	}
	return &StatusResponse{
		Outcome:                outcome,
		FinancialTransactionID: "stub-fin-" + externalID,
		RawBody:                fmt.Sprintf(`{"stub":true,"external_id":%q,"status":%q}`, externalID, outcome),
	}, nil
}
