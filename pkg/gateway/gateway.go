package gateway

import (
	"context"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// CollectionRequest asks a provider to pull money from a customer's
// mobile-money account. ReferenceID is our idempotency key and must be unique
// per attempt.
type CollectionRequest struct {
	ReferenceID string
	Msisdn      string // e.g. 250781234567
	Amount      int64  // whole RWF
	Currency    string
	Note        string
	CallbackURL string
}

// CollectionResponse is the provider's synchronous acknowledgment. The real
// outcome arrives later via webhook or status poll.
type CollectionResponse struct {
	ExternalID string // provider-side id that callbacks will carry
	Status     domain.TxStatus
	RawBody    string
}

// TransferRequest pushes money out to a payout msisdn.
type TransferRequest struct {
	ReferenceID string
	Msisdn      string
	Amount      int64
	Currency    string
	Note        string
	CallbackURL string
}

type TransferResponse struct {
	ExternalID string
	Status     domain.TxStatus
	RawBody    string
}

// StatusResponse is a normalized answer from a provider status query.
type StatusResponse struct {
	Outcome                domain.TxStatus
	FinancialTransactionID string
	Reason                 string
	RawBody                string
}

type CollectionProvider interface {
	Name() domain.Gateway
	RequestToPay(ctx context.Context, req CollectionRequest) (*CollectionResponse, error)
	QueryStatus(ctx context.Context, externalID string) (*StatusResponse, error)
}

type DisbursementProvider interface {
	Name() domain.Gateway
	Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error)
	QueryStatus(ctx context.Context, externalID string) (*StatusResponse, error)
}
