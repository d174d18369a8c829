package config

// SalesforceConfig describes everything needed to talk to a Salesforce org:
// the connected-app OAuth credentials and the REST API version to pin.
type SalesforceConfig interface {
	GetSalesforceClientID() string
	GetSalesforceClientSecret() string
	GetSalesforceCallbackURL() string
	GetSalesforceAuthURL() string
	GetSalesforceTokenURL() string
	GetSalesforceAPIVersion() string
}

const (
	defaultAuthURL    = "https://login.salesforce.com/services/oauth2/authorize"
	defaultTokenURL   = "https://login.salesforce.com/services/oauth2/token"
	defaultAPIVersion = "v62.0"
)

type Salesforce struct{}

var _ SalesforceConfig = Salesforce{}

func (Salesforce) GetSalesforceClientID() string {
	return GetEnv("SF_CLIENT_ID", "")
}

func (Salesforce) GetSalesforceClientSecret() string {
	return GetEnv("SF_CLIENT_SECRET", "")
}

func (Salesforce) GetSalesforceCallbackURL() string {
	return GetEnv("SF_CALLBACK_URL", "http://localhost:8000/auth/callback")
}

func (Salesforce) GetSalesforceAuthURL() string {
	return GetEnv("SF_AUTH_URL", defaultAuthURL)
}

func (Salesforce) GetSalesforceTokenURL() string {
	return GetEnv("SF_TOKEN_URL", defaultTokenURL)
}

// GetSalesforceAPIVersion returns the REST API version, including the "v"
// prefix (e.g. "v62.0").
func (Salesforce) GetSalesforceAPIVersion() string {
	return GetEnv("SF_API_VERSION", defaultAPIVersion)
}
