package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPAPI parle aux endpoints panier du backend Maison.
// Implémente API ; le token JWT est celui de la session utilisateur.
type HTTPAPI struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPAPI(baseURL, token string) *HTTPAPI {
	return &HTTPAPI{
		BaseURL: baseURL,
		Token:   token,
		Client:  http.DefaultClient,
	}
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.Token)

	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, e.Error)
		}
		return fmt.Errorf("%s %s: statut %d", method, path, resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (a *HTTPAPI) PatchQuantity(ctx context.Context, productID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return a.do(ctx, http.MethodPatch, "/api/cart/"+productID, body, nil)
}

func (a *HTTPAPI) DeleteLine(ctx context.Context, productID string) error {
	return a.do(ctx, http.MethodDelete, "/api/cart/"+productID, nil, nil)
}

func (a *HTTPAPI) BatchStock(ctx context.Context, productIDs []string) (map[string]int, error) {
	body := map[string][]string{"product_ids": productIDs}
	var resp struct {
		Stocks map[string]int `json:"stocks"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/products/stock-batch", body, &resp); err != nil {
		return nil, err
	}
	return resp.Stocks, nil
}
