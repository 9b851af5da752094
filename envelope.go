package locator

// BaiduEnvelope is the Baidu-native response body served by /location/ip
// when a Baidu-format provider answered.
type BaiduEnvelope struct {
	Status  int          `json:"status"`
	Address string       `json:"address"`
	Content BaiduContent `json:"content"`
}

// BaiduContent mirrors the content object of the Baidu location/ip schema.
type BaiduContent struct {
	Address       string             `json:"address"`
	AddressDetail BaiduAddressDetail `json:"address_detail"`
	Point         BaiduPoint         `json:"point"`
}

// BaiduAddressDetail mirrors the address_detail object.
type BaiduAddressDetail struct {
	Adcode       string `json:"adcode"`
	City         string `json:"city"`
	CityCode     int    `json:"city_code"`
	District     string `json:"district"`
	Province     string `json:"province"`
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
}

// BaiduPoint carries coordinates in the provider's own coordinate system.
type BaiduPoint struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// AmapEnvelope is the Amap-native response body, served by /v3/ip always
// and by /location/ip when Amap answered.
type AmapEnvelope struct {
	Status    string `json:"status"`
	Info      string `json:"info"`
	Infocode  string `json:"infocode"`
	Province  string `json:"province"`
	City      string `json:"city"`
	Adcode    string `json:"adcode"`
	Rectangle string `json:"rectangle"`
}

// buildBaiduEnvelope projects a normalized location into the Baidu shape.
// Fields the source never produced stay empty.
func buildBaiduEnvelope(location *NormalizedLocation) *BaiduEnvelope {
	return &BaiduEnvelope{
		Status:  0,
		Address: location.CountryCode + "|" + location.Province + "|" + location.City + "||None||||",
		Content: BaiduContent{
			Address: location.Address,
			AddressDetail: BaiduAddressDetail{
				Adcode:   location.Adcode,
				City:     location.City,
				CityCode: location.CityCode,
				District: location.District,
				Province: location.Province,
			},
			Point: BaiduPoint{
				X: location.Longitude,
				Y: location.Latitude,
			},
		},
	}
}

// buildAmapEnvelope projects a normalized location into the Amap shape.
// The info field names the provider that actually answered.
func buildAmapEnvelope(location *NormalizedLocation) *AmapEnvelope {
	return &AmapEnvelope{
		Status:    "1",
		Info:      location.Source,
		Infocode:  "10000",
		Province:  location.Province,
		City:      location.City,
		Adcode:    location.Adcode,
		Rectangle: location.Rectangle,
	}
}

// amapExhaustedEnvelope is the fixed body served when every candidate
// failed and the caller asked for the Amap shape.
func amapExhaustedEnvelope() *AmapEnvelope {
	return &AmapEnvelope{
		Status:   "0",
		Info:     "所有上游接口均不可用",
		Infocode: "10003",
	}
}

// amapInvalidParamsEnvelope is served by /v3/ip for inputs rejected before
// the resolution core is reached.
func amapInvalidParamsEnvelope() *AmapEnvelope {
	return &AmapEnvelope{
		Status:   "0",
		Info:     "INVALID_PARAMS",
		Infocode: "20000",
	}
}
