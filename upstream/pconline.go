package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const NamePconline = "pconline"

type pconlineResponse struct {
	IP       string `json:"ip"`
	Pro      string `json:"pro"`
	ProCode  string `json:"proCode"`
	City     string `json:"city"`
	CityCode string `json:"cityCode"`
	Region   string `json:"region"`
	Addr     string `json:"addr"`
	Err      string `json:"err"`
}

// Pconline queries the keyless pconline whois IP API and answers in the
// Baidu native format. The upstream still serves GBK, so the body goes
// through a decoder before parsing.
type Pconline struct {
	// EndpointURL is overridable for tests.
	EndpointURL string

	client *http.Client
}

func NewPconline(client *http.Client) *Pconline {
	return &Pconline{
		EndpointURL: "http://whois.pconline.com.cn/ipJson.jsp",
		client:      client,
	}
}

func (p *Pconline) Name() string {
	return NamePconline
}

func (p *Pconline) Format() Format {
	return FormatBaidu
}

func (p *Pconline) RequiresCredential() bool {
	return false
}

func (p *Pconline) Endpoint() string {
	return p.EndpointURL
}

func (p *Pconline) Lookup(ctx context.Context, query Query, credential string) (*Location, error) {
	params := url.Values{}
	params.Set("ip", query.IP)
	params.Set("json", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.EndpointURL+"?"+params.Encode(), nil)

	if err != nil {
		return nil, NewError(NamePconline, ReasonMalformedResponse, err)
	}

	res, err := p.client.Do(req)

	if err != nil {
		return nil, NewError(NamePconline, ReasonTimeout, err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, NewError(NamePconline, ReasonMalformedResponse, fmt.Errorf("unexpected status code %d", res.StatusCode))
	}

	body := transform.NewReader(res.Body, simplifiedchinese.GBK.NewDecoder())

	var payload pconlineResponse

	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, NewError(NamePconline, ReasonMalformedResponse, err)
	}

	if payload.Err != "" {
		return nil, NewError(NamePconline, ReasonMalformedResponse, fmt.Errorf("pconline error %q", payload.Err))
	}

	province := strings.TrimSpace(payload.Pro)
	city := strings.TrimSpace(payload.City)

	return &Location{
		Province: province,
		City:     city,
		District: strings.TrimSpace(payload.Region),
		Adcode:   pconlineAdcode(payload.ProCode, payload.CityCode),
		Address:  province + city,
	}, nil
}

// pconlineAdcode joins the province code with the city-local part of the
// city code, matching the code layout the other providers return. A city
// code too short to carry a city-local part is dropped.
func pconlineAdcode(proCode, cityCode string) string {
	if len(cityCode) > 2 {
		return proCode + cityCode[2:]
	}

	return proCode
}
