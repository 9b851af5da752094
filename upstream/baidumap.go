package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const NameBaiduMap = "baidu-map"

// baiduCredentialStatus reports whether a Baidu Map status code means the
// supplied AK is unusable: 101 (service disabled), the whole 200-series
// permission family (230: AK lacks permission, 240: AK invalid or deleted),
// and the quota codes 302, 401 and 402.
func baiduCredentialStatus(status int) bool {
	switch {
	case status == 101:
		return true
	case status >= 200 && status <= 299:
		return true
	case status == 302, status == 401, status == 402:
		return true
	}

	return false
}

type baiduMapResponse struct {
	Status  int    `json:"status"`
	Address string `json:"address"`
	Content struct {
		Address       string `json:"address"`
		AddressDetail struct {
			Adcode       string `json:"adcode"`
			City         string `json:"city"`
			CityCode     int    `json:"city_code"`
			District     string `json:"district"`
			Province     string `json:"province"`
			Street       string `json:"street"`
			StreetNumber string `json:"street_number"`
		} `json:"address_detail"`
		Point struct {
			X string `json:"x"`
			Y string `json:"y"`
		} `json:"point"`
	} `json:"content"`
}

// BaiduMap queries the Baidu Map IP location API. It requires an AK and
// answers in the Baidu native format.
type BaiduMap struct {
	// EndpointURL is overridable for tests.
	EndpointURL string

	client *http.Client
}

func NewBaiduMap(client *http.Client) *BaiduMap {
	return &BaiduMap{
		EndpointURL: "https://api.map.baidu.com/location/ip",
		client:      client,
	}
}

func (b *BaiduMap) Name() string {
	return NameBaiduMap
}

func (b *BaiduMap) Format() Format {
	return FormatBaidu
}

func (b *BaiduMap) RequiresCredential() bool {
	return true
}

func (b *BaiduMap) Endpoint() string {
	return b.EndpointURL
}

func (b *BaiduMap) Lookup(ctx context.Context, query Query, credential string) (*Location, error) {
	if credential == "" {
		return nil, NewError(NameBaiduMap, ReasonCredentialMissing, nil)
	}

	params := url.Values{}
	params.Set("ip", query.IP)
	params.Set("ak", credential)

	if query.Coor != "" {
		params.Set("coor", query.Coor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.EndpointURL+"?"+params.Encode(), nil)

	if err != nil {
		return nil, NewError(NameBaiduMap, ReasonMalformedResponse, err)
	}

	res, err := b.client.Do(req)

	if err != nil {
		return nil, NewError(NameBaiduMap, ReasonTimeout, err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, NewError(NameBaiduMap, ReasonMalformedResponse, fmt.Errorf("unexpected status code %d", res.StatusCode))
	}

	var payload baiduMapResponse

	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, NewError(NameBaiduMap, ReasonMalformedResponse, err)
	}

	if baiduCredentialStatus(payload.Status) {
		return nil, NewError(NameBaiduMap, ReasonCredentialInvalid, fmt.Errorf("baidu status %d", payload.Status))
	}

	if payload.Status != 0 {
		return nil, NewError(NameBaiduMap, ReasonMalformedResponse, fmt.Errorf("baidu status %d", payload.Status))
	}

	detail := payload.Content.AddressDetail

	return &Location{
		Province:  detail.Province,
		City:      detail.City,
		District:  detail.District,
		Adcode:    detail.Adcode,
		CityCode:  detail.CityCode,
		Longitude: payload.Content.Point.X,
		Latitude:  payload.Content.Point.Y,
		Address:   payload.Content.Address,
	}, nil
}
