package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// AirtelCollectionProvider implements USSD push collection against the Airtel
// Money Open API.
type AirtelCollectionProvider struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Country      string
	Currency     string
	client       *http.Client
}

func NewAirtelCollectionProvider(baseURL, clientID, clientSecret, country, currency string, timeout time.Duration) *AirtelCollectionProvider {
	if baseURL == "" {
		baseURL = "https://openapi.airtel.africa"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AirtelCollectionProvider{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Country:      country,
		Currency:     currency,
		client:       &http.Client{Timeout: timeout},
	}
}

func (p *AirtelCollectionProvider) Name() domain.Gateway {
	return domain.GatewayAirtel
}

type airtelTokenReq struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type airtelTokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (p *AirtelCollectionProvider) getToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(airtelTokenReq{ClientID: p.ClientID, ClientSecret: p.ClientSecret, GrantType: "client_credentials"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/auth/oauth2/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", &domain.GatewayError{Gateway: domain.GatewayAirtel, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &domain.GatewayError{Gateway: domain.GatewayAirtel, Definitive: true, Err: fmt.Errorf("token: %d", resp.StatusCode)}
	}
	var out airtelTokenResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

type airtelPushReq struct {
	Reference  string `json:"reference"`
	Subscriber struct {
		Country  string `json:"country"`
		Currency string `json:"currency"`
		Msisdn   string `json:"msisdn"`
	} `json:"subscriber"`
	Transaction struct {
		Amount   int64  `json:"amount"`
		Country  string `json:"country"`
		Currency string `json:"currency"`
		ID       string `json:"id"`
	} `json:"transaction"`
}

type airtelPushResp struct {
	Data struct {
		Transaction struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"transaction"`
	} `json:"data"`
	Status struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Success bool   `json:"success"`
	} `json:"status"`
}

func (p *AirtelCollectionProvider) RequestToPay(ctx context.Context, req CollectionRequest) (*CollectionResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}
	var payload airtelPushReq
	payload.Reference = req.Note
	payload.Subscriber.Country = p.Country
	payload.Subscriber.Currency = p.Currency
	payload.Subscriber.Msisdn = req.Msisdn
	payload.Transaction.Amount = req.Amount
	payload.Transaction.Country = p.Country
	payload.Transaction.Currency = p.Currency
	payload.Transaction.ID = req.ReferenceID
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/merchant/v1/payments/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	apiReq.Header.Set("X-Country", p.Country)
	apiReq.Header.Set("X-Currency", p.Currency)
	log.Printf("[Airtel] POST /merchant/v1/payments ref=%s amount=%d msisdn=%s", req.ReferenceID, req.Amount, req.Msisdn)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, &domain.GatewayError{Gateway: domain.GatewayAirtel, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[Airtel] payments status=%d body=%s", resp.StatusCode, string(respBody))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &domain.GatewayError{Gateway: domain.GatewayAirtel, Definitive: true, Err: fmt.Errorf("payments: %d %s", resp.StatusCode, string(respBody))}
	}
	var out airtelPushResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if !out.Status.Success {
		return nil, &domain.GatewayError{Gateway: domain.GatewayAirtel, Definitive: true, Err: fmt.Errorf("payments rejected: %s %s", out.Status.Code, out.Status.Message)}
	}
	externalID := out.Data.Transaction.ID
	if externalID == "" {
		externalID = req.ReferenceID
	}
	return &CollectionResponse{
		ExternalID: externalID,
		Status:     domain.TxPending,
		RawBody:    string(respBody),
	}, nil
}

type airtelStatusResp struct {
	Data struct {
		Transaction struct {
			ID           string `json:"id"`
			AirtelMoneyID string `json:"airtel_money_id"`
			Status       string `json:"status"` // TS success, TF failed, TIP in progress
			Message      string `json:"message"`
		} `json:"transaction"`
	} `json:"data"`
}

func (p *AirtelCollectionProvider) QueryStatus(ctx context.Context, externalID string) (*StatusResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/standard/v1/payments/%s", p.BaseURL, externalID)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Authorization", "Bearer "+token)
	apiReq.Header.Set("X-Country", p.Country)
	apiReq.Header.Set("X-Currency", p.Currency)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, &domain.GatewayError{Gateway: domain.GatewayAirtel, Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.GatewayError{Gateway: domain.GatewayAirtel, Definitive: true, Err: fmt.Errorf("status query: %d %s", resp.StatusCode, string(respBody))}
	}
	var out airtelStatusResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &StatusResponse{
		Outcome:                AirtelOutcome(out.Data.Transaction.Status),
		FinancialTransactionID: out.Data.Transaction.AirtelMoneyID,
		Reason:                 out.Data.Transaction.Message,
		RawBody:                string(respBody),
	}, nil
}

func AirtelOutcome(status string) domain.TxStatus {
	switch status {
	case "TS", "SUCCESS":
		return domain.TxSuccess
	case "TF", "FAILED":
		return domain.TxFailed
	default:
		return domain.TxPending
	}
}
