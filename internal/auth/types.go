package auth

// Broker is one entry of the broker metadata table served to the front end
type Broker struct {
	BrokerClientID       string `json:"brokerClientId"`
	BrokerName           string `json:"brokerName"`
	AppID                string `json:"appId"`
	APIKey               string `json:"apiKey"`
	APISecret            string `json:"apiSecret"`
	Status               string `json:"status"`
	LastTokenGeneratedAt string `json:"lastTokenGeneratedAt"`
	AddedAt              string `json:"addedAt"`
}

// CodeExchangeRequest is the front end's request to trade a request code for a token
type CodeExchangeRequest struct {
	APIKey      string `json:"apiKey"`
	RequestCode string `json:"requestCode"`
	APISecret   string `json:"apiSecret"`
}

// TokenRequest is the body Flattrade's apitoken endpoint expects
type TokenRequest struct {
	APIKey      string `json:"api_key"`
	RequestCode string `json:"request_code"`
	APISecret   string `json:"api_secret"`
}
