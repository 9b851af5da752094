package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const NameAmap = "amap"

// Amap infocodes signalling a rejected, disabled, quota-exceeded or
// domain-restricted key. Anything else non-successful is a malformed reply.
var amapCredentialInfocodes = map[string]bool{
	"10001": true, // INVALID_USER_KEY
	"10002": true, // SERVICE_NOT_AVAILABLE
	"10003": true, // DAILY_QUERY_OVER_LIMIT
	"10004": true, // ACCESS_TOO_FREQUENT
	"10005": true, // INVALID_USER_IP
	"10006": true, // INVALID_USER_DOMAIN
	"10009": true, // USERKEY_PLAT_NOMATCH
	"10013": true, // USERKEY_RECYCLED
}

// amapField tolerates Amap's habit of returning [] instead of an empty
// string for fields it cannot fill (non-mainland IPs).
type amapField string

func (f *amapField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string

		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*f = amapField(s)
		return nil
	}

	*f = ""
	return nil
}

type amapResponse struct {
	Status    string    `json:"status"`
	Info      string    `json:"info"`
	Infocode  string    `json:"infocode"`
	Province  amapField `json:"province"`
	City      amapField `json:"city"`
	Adcode    amapField `json:"adcode"`
	Rectangle amapField `json:"rectangle"`
}

// Amap queries the Amap (Gaode) v3/ip API. It requires a web service key
// and answers in the Amap native format.
type Amap struct {
	// EndpointURL is overridable for tests.
	EndpointURL string

	client *http.Client
}

func NewAmap(client *http.Client) *Amap {
	return &Amap{
		EndpointURL: "https://restapi.amap.com/v3/ip",
		client:      client,
	}
}

func (a *Amap) Name() string {
	return NameAmap
}

func (a *Amap) Format() Format {
	return FormatAmap
}

func (a *Amap) RequiresCredential() bool {
	return true
}

func (a *Amap) Endpoint() string {
	return a.EndpointURL
}

func (a *Amap) Lookup(ctx context.Context, query Query, credential string) (*Location, error) {
	if credential == "" {
		return nil, NewError(NameAmap, ReasonCredentialMissing, nil)
	}

	params := url.Values{}
	params.Set("ip", query.IP)
	params.Set("key", credential)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.EndpointURL+"?"+params.Encode(), nil)

	if err != nil {
		return nil, NewError(NameAmap, ReasonMalformedResponse, err)
	}

	res, err := a.client.Do(req)

	if err != nil {
		return nil, NewError(NameAmap, ReasonTimeout, err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, NewError(NameAmap, ReasonMalformedResponse, fmt.Errorf("unexpected status code %d", res.StatusCode))
	}

	var payload amapResponse

	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, NewError(NameAmap, ReasonMalformedResponse, err)
	}

	if payload.Status != "1" {
		if amapCredentialInfocodes[payload.Infocode] {
			return nil, NewError(NameAmap, ReasonCredentialInvalid, fmt.Errorf("amap %s (%s)", payload.Info, payload.Infocode))
		}

		return nil, NewError(NameAmap, ReasonMalformedResponse, fmt.Errorf("amap %s (%s)", payload.Info, payload.Infocode))
	}

	return &Location{
		Province:  string(payload.Province),
		City:      string(payload.City),
		Adcode:    string(payload.Adcode),
		Rectangle: string(payload.Rectangle),
	}, nil
}
