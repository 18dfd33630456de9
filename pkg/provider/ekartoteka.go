package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultEkartotekaURL = "https://e-kartoteka.pl"

// timeNow is the clock for the freshness and force-unpaid rules.
var timeNow = time.Now

// Ekartoteka reads apartment fees from the e-kartoteka housing co-op API.
// Authentication yields a JWT whose username claim carries the client id;
// the account id comes from the profile endpoint.
type Ekartoteka struct {
	username string
	password string
	baseURL  string
	client   *http.Client

	token     string
	clientID  int
	accountID int
}

// NewEkartoteka creates an unauthenticated client.
func NewEkartoteka(username, password string) *Ekartoteka {
	return &Ekartoteka{
		username: username,
		password: password,
		baseURL:  defaultEkartotekaURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL redirects API calls, used by tests.
func (e *Ekartoteka) WithBaseURL(url string) *Ekartoteka {
	e.baseURL = url
	return e
}

// Name implements Provider.
func (e *Ekartoteka) Name() string { return "ekartoteka" }

// Login obtains a token and resolves the client and account ids.
func (e *Ekartoteka) Login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": e.username,
		"password": e.password,
	})
	if err != nil {
		return err
	}
	var auth struct {
		Token string `json:"token"`
	}
	if err := e.postJSON(ctx, "/api/api-token-auth/", payload, &auth); err != nil {
		return fmt.Errorf("ekartoteka login: %w", err)
	}
	e.token = auth.Token

	clientID, err := clientIDFromToken(auth.Token)
	if err != nil {
		return fmt.Errorf("ekartoteka login: %w", err)
	}
	e.clientID = clientID

	var me struct {
		Name     string `json:"Nazwa"`
		Email    string `json:"Email"`
		Accounts []int  `json:"DaneKsiegowe"`
	}
	if err := e.getJSON(ctx, "/api/uzytkownicy/uzytkownicy/me/", &me); err != nil {
		return fmt.Errorf("ekartoteka profile: %w", err)
	}
	if len(me.Accounts) == 0 {
		return fmt.Errorf("ekartoteka profile: no accounting data")
	}
	e.accountID = me.Accounts[0]
	return nil
}

// Fetch implements Provider. It reports the current monthly fee and whether
// the settlement balance is cleared. Within the first weeks of a month the
// co-op often still shows the previous cycle as unpaid, so ForceUnpaid is
// only set from the 25th on; before that a recorded paid state wins.
func (e *Ekartoteka) Fetch(ctx context.Context) (Result, error) {
	if e.token == "" {
		if err := e.Login(ctx); err != nil {
			return Result{}, err
		}
	}

	updates, err := e.updateStamps(ctx)
	if err != nil {
		return Result{}, err
	}
	now := timeNow()
	stamp, ok := updates["LI"]
	if !ok || stamp.Month() != now.Month() || stamp.Year() != now.Year() {
		return Result{}, fmt.Errorf("ekartoteka: fee data not refreshed for %d-%d", now.Year(), int(now.Month()))
	}

	fee, err := e.monthlyFee(ctx)
	if err != nil {
		return Result{}, err
	}
	balance, err := e.settlementBalance(ctx, now.Year())
	if err != nil {
		return Result{}, err
	}

	paid := balance.LessThanOrEqual(decimal.Zero)
	forceUnpaid := now.Day() >= 25
	return Result{
		Amount:      &fee,
		Paid:        &paid,
		ForceUnpaid: &forceUnpaid,
		Status:      fmt.Sprintf("EKARTOTEKA: apartment fee: PLN %s, unpaid: PLN %s", fee.StringFixed(2), balance.StringFixed(2)),
	}, nil
}

// monthlyFee reads the gross sum of this month's fees.
func (e *Ekartoteka) monthlyFee(ctx context.Context) (decimal.Decimal, error) {
	var fees []struct {
		Gross float64 `json:"Brutto"`
	}
	path := fmt.Sprintf("/api/oplatymiesieczne/oplatymiesiecznenalokale/suma/?id_a_do=%d&id_kli=%d", e.accountID, e.clientID)
	if err := e.getJSON(ctx, path, &fees); err != nil {
		return decimal.Decimal{}, fmt.Errorf("ekartoteka fees: %w", err)
	}
	if len(fees) == 0 {
		return decimal.Decimal{}, fmt.Errorf("ekartoteka fees: empty response")
	}
	return decimal.NewFromFloat(fees[0].Gross), nil
}

// settlementBalance sums debit minus credit over the year's settlement
// positions. A positive balance means something is still owed.
func (e *Ekartoteka) settlementBalance(ctx context.Context, year int) (decimal.Decimal, error) {
	var settlements struct {
		Results []struct {
			Debit  float64 `json:"Wn"`
			Credit float64 `json:"Ma"`
		} `json:"results"`
	}
	path := fmt.Sprintf("/api/rozrachunki/konta/?id_a_do=%d&id_kli=%d&rok=%d", e.accountID, e.clientID, year)
	if err := e.getJSON(ctx, path, &settlements); err != nil {
		return decimal.Decimal{}, fmt.Errorf("ekartoteka settlements: %w", err)
	}
	balance := decimal.Zero
	for _, pos := range settlements.Results {
		balance = balance.Add(decimal.NewFromFloat(pos.Debit)).Sub(decimal.NewFromFloat(pos.Credit))
	}
	return balance, nil
}

// stampTypes are the refresh-date categories worth keeping. Only "LI"
// (fee notices) is consulted today.
var stampTypes = map[string]bool{
	"DK": true, "DKL": true, "SRC": true, "LI": true,
	"NL": true, "NRB": true, "STL": true,
}

// updateStamps reads the per-category data refresh dates.
func (e *Ekartoteka) updateStamps(ctx context.Context) (map[string]time.Time, error) {
	var stamps struct {
		Results []struct {
			Type string `json:"typ"`
			Date string `json:"data"`
		} `json:"results"`
	}
	path := fmt.Sprintf("/api/uzytkownicy/datyaktualizacji/?id_a_do=%d&id_kli=%d&pageSize=50", e.accountID, e.clientID)
	if err := e.getJSON(ctx, path, &stamps); err != nil {
		return nil, fmt.Errorf("ekartoteka update stamps: %w", err)
	}
	updates := make(map[string]time.Time)
	for _, item := range stamps.Results {
		if !stampTypes[item.Type] {
			continue
		}
		raw := item.Date
		if len(raw) > 10 {
			raw = raw[:10]
		}
		stamp, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		updates[item.Type] = stamp
	}
	return updates, nil
}

func (e *Ekartoteka) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	return e.do(req, out)
}

func (e *Ekartoteka) postJSON(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, out)
}

func (e *Ekartoteka) do(req *http.Request, out any) error {
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// clientIDFromToken extracts the numeric prefix of the JWT username claim.
func clientIDFromToken(token string) (int, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed token payload: %w", err)
	}
	var claims struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, fmt.Errorf("malformed token claims: %w", err)
	}
	id, err := strconv.Atoi(strings.SplitN(claims.Username, "_", 2)[0])
	if err != nil {
		return 0, fmt.Errorf("token username %q has no client id", claims.Username)
	}
	return id, nil
}
