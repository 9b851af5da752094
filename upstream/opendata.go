package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const NameBaiduOpendata = "baidu-opendata"

var (
	// location values look like "广东省清远市 电信": the trailing token is the
	// carrier and is not part of the address.
	opendataCarrier = regexp.MustCompile(`\s+\S+$`)

	opendataDivision = regexp.MustCompile(`[省市区]`)
)

type opendataResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Location string `json:"location"`
	} `json:"data"`
}

// BaiduOpendata queries the keyless Baidu opendata IP API and answers in
// the Baidu native format.
type BaiduOpendata struct {
	// EndpointURL is overridable for tests.
	EndpointURL string

	client *http.Client
}

func NewBaiduOpendata(client *http.Client) *BaiduOpendata {
	return &BaiduOpendata{
		EndpointURL: "https://opendata.baidu.com/api.php",
		client:      client,
	}
}

func (o *BaiduOpendata) Name() string {
	return NameBaiduOpendata
}

func (o *BaiduOpendata) Format() Format {
	return FormatBaidu
}

func (o *BaiduOpendata) RequiresCredential() bool {
	return false
}

func (o *BaiduOpendata) Endpoint() string {
	return o.EndpointURL
}

func (o *BaiduOpendata) Lookup(ctx context.Context, query Query, credential string) (*Location, error) {
	params := url.Values{}
	params.Set("query", query.IP)
	params.Set("co", "")
	params.Set("resource_id", "6006")
	params.Set("oe", "utf8")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.EndpointURL+"?"+params.Encode(), nil)

	if err != nil {
		return nil, NewError(NameBaiduOpendata, ReasonMalformedResponse, err)
	}

	res, err := o.client.Do(req)

	if err != nil {
		return nil, NewError(NameBaiduOpendata, ReasonTimeout, err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, NewError(NameBaiduOpendata, ReasonMalformedResponse, fmt.Errorf("unexpected status code %d", res.StatusCode))
	}

	var payload opendataResponse

	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, NewError(NameBaiduOpendata, ReasonMalformedResponse, err)
	}

	if payload.Status != "0" || len(payload.Data) == 0 {
		return nil, NewError(NameBaiduOpendata, ReasonMalformedResponse, fmt.Errorf("opendata status %q", payload.Status))
	}

	location := strings.TrimSpace(payload.Data[0].Location)

	if location == "" {
		return nil, NewError(NameBaiduOpendata, ReasonIncompleteLocation, nil)
	}

	province, city := splitLocation(location)

	return &Location{
		Province: province,
		City:     city,
		Address:  opendataCarrier.ReplaceAllString(location, ""),
	}, nil
}

// splitLocation breaks "广东省清远市 电信" into province and city. For
// municipalities like "北京市 电信" the city defaults to the province name.
func splitLocation(location string) (string, string) {
	clean := opendataCarrier.ReplaceAllString(location, "")

	var parts []string

	for _, part := range opendataDivision.Split(clean, -1) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return "", ""
	}

	province := parts[0]
	city := province

	if len(parts) > 1 {
		city = parts[1]
	}

	return province, city
}
