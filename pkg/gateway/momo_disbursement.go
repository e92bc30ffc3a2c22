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

// MomoDisbursementProvider pushes payouts over the MTN MoMo disbursement
// product (transfer).
type MomoDisbursementProvider struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackURL     string
	client          *http.Client
}

func NewMomoDisbursementProvider(baseURL, subscriptionKey, apiUser, apiKey, targetEnv, callbackURL string, timeout time.Duration) *MomoDisbursementProvider {
	if baseURL == "" {
		baseURL = "https://sandbox.momodeveloper.mtn.com"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &MomoDisbursementProvider{
		BaseURL:         baseURL,
		SubscriptionKey: subscriptionKey,
		APIUser:         apiUser,
		APIKey:          apiKey,
		TargetEnv:       targetEnv,
		CallbackURL:     callbackURL,
		client:          &http.Client{Timeout: timeout},
	}
}

func (p *MomoDisbursementProvider) Name() domain.Gateway {
	return domain.GatewayMomoDisbursement
}

func (p *MomoDisbursementProvider) getToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/disbursement/token/", nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(p.APIUser + ":" + p.APIKey))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Ocp-Apim-Subscription-Key", p.SubscriptionKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return "", &domain.GatewayError{Gateway: domain.GatewayMomoDisbursement, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &domain.GatewayError{Gateway: domain.GatewayMomoDisbursement, Definitive: true, Err: fmt.Errorf("token: %d", resp.StatusCode)}
	}
	var out momoTokenResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

type momoTransfer struct {
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	ExternalID   string    `json:"externalId"`
	Payee        momoPayer `json:"payee"`
	PayerMessage string    `json:"payerMessage"`
	PayeeNote    string    `json:"payeeNote"`
}

func (p *MomoDisbursementProvider) Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}
	payload := momoTransfer{
		Amount:       strconv.FormatInt(req.Amount, 10),
		Currency:     req.Currency,
		ExternalID:   req.ReferenceID,
		Payee:        momoPayer{PartyIDType: "MSISDN", PartyID: req.Msisdn},
		PayerMessage: req.Note,
		PayeeNote:    req.Note,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/disbursement/v1_0/transfer", bytes.NewReader(body))
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
	log.Printf("[MoMo disbursement] POST /disbursement/v1_0/transfer ref=%s amount=%d msisdn=%s", req.ReferenceID, req.Amount, req.Msisdn)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomoDisbursement, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[MoMo disbursement] transfer status=%d body=%s", resp.StatusCode, string(respBody))
	if resp.StatusCode != http.StatusAccepted {
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomoDisbursement, Definitive: true, Err: fmt.Errorf("transfer: %d %s", resp.StatusCode, string(respBody))}
	}
	return &TransferResponse{
		ExternalID: req.ReferenceID,
		Status:     domain.TxPending,
		RawBody:    string(respBody),
	}, nil
}

func (p *MomoDisbursementProvider) QueryStatus(ctx context.Context, externalID string) (*StatusResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/disbursement/v1_0/transfer/%s", p.BaseURL, externalID)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Authorization", "Bearer "+token)
	apiReq.Header.Set("Ocp-Apim-Subscription-Key", p.SubscriptionKey)
	apiReq.Header.Set("X-Target-Environment", p.TargetEnv)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomoDisbursement, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.GatewayError{Gateway: domain.GatewayMomoDisbursement, Definitive: true, Err: fmt.Errorf("status query: %d %s", resp.StatusCode, string(respBody))}
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
