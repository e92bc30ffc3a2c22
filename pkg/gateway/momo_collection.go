package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// MomoCollectionProvider implements request-to-pay against the MTN MoMo
// collection API.
type MomoCollectionProvider struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackURL     string
	client          *http.Client
}

func NewMomoCollectionProvider(baseURL, subscriptionKey, apiUser, apiKey, targetEnv, callbackURL string, timeout time.Duration) *MomoCollectionProvider {
	if baseURL == "" {
		baseURL = "https://sandbox.momodeveloper.mtn.com"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &MomoCollectionProvider{
		BaseURL:         baseURL,
		SubscriptionKey: subscriptionKey,
		APIUser:         apiUser,
		APIKey:          apiKey,
		TargetEnv:       targetEnv,
		CallbackURL:     callbackURL,
		client:          &http.Client{Timeout: timeout},
	}
}

func (p *MomoCollectionProvider) Name() domain.Gateway {
	return domain.GatewayMomo
}

type momoTokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// getToken fetches a fresh bearer token per transaction.
func (p *MomoCollectionProvider) getToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(p.APIUser + ":" + p.APIKey))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Ocp-Apim-Subscription-Key", p.SubscriptionKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return "", &domain.GatewayError{Gateway: domain.GatewayMomo, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &domain.GatewayError{Gateway: domain.GatewayMomo, Definitive: true, Err: fmt.Errorf("token: %d", resp.StatusCode)}
	}
	var out momoTokenResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

type momoPayer struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

type momoRequestToPay struct {
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	ExternalID   string    `json:"externalId"`
	Payer        momoPayer `json:"payer"`
	PayerMessage string    `json:"payerMessage"`
	PayeeNote    string    `json:"payeeNote"`
}

// RequestToPay submits a collection. The ReferenceID doubles as the MoMo
// X-Reference-Id, which is what the provider echoes back on callbacks.
func (p *MomoCollectionProvider) RequestToPay(ctx context.Context, req CollectionRequest) (*CollectionResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}
	payload := momoRequestToPay{
		Amount:       strconv.FormatInt(req.Amount, 10),
		Currency:     req.Currency,
		ExternalID:   req.ReferenceID,
		Payer:        momoPayer{PartyIDType: "MSISDN", PartyID: req.Msisdn},
		PayerMessage: req.Note,
		PayeeNote:    req.Note,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/collection/v1_0/requesttopay", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	apiReq.Header.Set("Ocp-Apim-Subscription-Key", p.SubscriptionKey)
	apiReq.Header.Set("X-Target-Environment", p.TargetEnv)
	apiReq.Header.Set("X-Reference-Id", req.ReferenceID)
	if req.CallbackURL != "" {
		apiReq.Header.Set("X-Callback-Url", req.CallbackURL)
	}
	log.Printf("[MoMo] POST /collection/v1_0/requesttopay ref=%s amount=%d msisdn=%s", req.ReferenceID, req.Amount, req.Msisdn)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		// Timeout or transport fault: the provider may still process the charge.
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomo, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[MoMo] requesttopay status=%d body=%s", resp.StatusCode, string(respBody))
	if resp.StatusCode != http.StatusAccepted {
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomo, Definitive: true, Err: fmt.Errorf("requesttopay: %d %s", resp.StatusCode, string(respBody))}
	}
	return &CollectionResponse{
		ExternalID: req.ReferenceID,
		Status:     domain.TxPending,
		RawBody:    string(respBody),
	}, nil
}

type momoStatusResp struct {
	Status                 string `json:"status"` // PENDING, SUCCESSFUL, FAILED
	FinancialTransactionID string `json:"financialTransactionId"`
	Reason                 string `json:"reason"`
}

func (p *MomoCollectionProvider) QueryStatus(ctx context.Context, externalID string) (*StatusResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/collection/v1_0/requesttopay/%s", p.BaseURL, externalID)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Authorization", "Bearer "+token)
	apiReq.Header.Set("Ocp-Apim-Subscription-Key", p.SubscriptionKey)
	apiReq.Header.Set("X-Target-Environment", p.TargetEnv)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomo, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomo, Definitive: true, Err: fmt.Errorf("status query: %d %s", resp.StatusCode, string(respBody))}
	}
	var out momoStatusResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &StatusResponse{
		Outcome:                MomoOutcome(out.Status),
		FinancialTransactionID: out.FinancialTransactionID,
		Reason:                 out.Reason,
		RawBody:                string(respBody),
	}, nil
}

// MomoOutcome maps a MoMo status word to a transaction status. Anything that
// is not an explicit terminal verdict stays PENDING; callbacks and status
// polls must never terminalize on an in-progress echo.
func MomoOutcome(status string) domain.TxStatus {
	switch status {
	case "SUCCESSFUL":
		return domain.TxSuccess
	case "FAILED":
		return domain.TxFailed
	default:
		return domain.TxPending
	}
}
