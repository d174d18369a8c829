package server

import (
	"strings"
	"time"

	"github.com/sfviewer/go-schema-server/datacloud"
	"github.com/sfviewer/go-schema-server/salesforce"
)

// Response models of the HTTP API (snake_case contract).

type AuthStatus struct {
	IsAuthenticated bool      `json:"is_authenticated"`
	User            *UserInfo `json:"user,omitempty"`
	InstanceURL     string    `json:"instance_url,omitempty"`
}

type UserInfo struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	OrgID           string `json:"org_id"`
	OrgName         string `json:"org_name,omitempty"`
	OrgType         string `json:"org_type,omitempty"`
	APIVersion      string `json:"api_version"`
	APIVersionLabel string `json:"api_version_label"`
}

// SessionInfo is the detailed connection view behind /auth/session-info.
type SessionInfo struct {
	Connection ConnectionInfo `json:"connection"`
	User       SessionUser    `json:"user"`
	Org        SessionOrg     `json:"org"`
}

type ConnectionInfo struct {
	InstanceURL  string    `json:"instance_url"`
	APIVersion   string    `json:"api_version"`
	RestEndpoint string    `json:"rest_endpoint,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SessionUser struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Language    string `json:"language,omitempty"`
	Locale      string `json:"locale,omitempty"`
	UserType    string `json:"user_type,omitempty"`
	ProfileID   string `json:"profile_id,omitempty"`
	ProfileName string `json:"profile_name,omitempty"`
}

type SessionOrg struct {
	OrgID        string `json:"org_id"`
	Name         string `json:"name"`
	OrgType      string `json:"org_type"`
	InstanceName string `json:"instance_name,omitempty"`
	IsSandbox    bool   `json:"is_sandbox"`

	// Probe outcomes: "enabled", "disabled" or "unknown".
	MultiCurrency   string `json:"multi_currency"`
	DefaultCurrency string `json:"default_currency,omitempty"`
	PersonAccounts  string `json:"person_accounts"`
}

type ObjectListResponse struct {
	Objects []salesforce.ObjectBasicInfo `json:"objects"`
	Count   int                          `json:"count"`
}

type BatchDescribeRequest struct {
	ObjectNames []string `json:"object_names"`
}

type BatchDescribeResponse struct {
	Results []salesforce.ObjectDescribe `json:"results"`
	Errors  map[string]string           `json:"errors"`
}

type VersionsResponse struct {
	Versions []salesforce.ApiVersionInfo `json:"versions"`
	Current  string                      `json:"current"`
}

type DataCloudStatus struct {
	DataCloudEnabled bool `json:"data_cloud_enabled"`
}

type EntityListResponse struct {
	Entities []datacloud.EntityBasicInfo `json:"entities"`
	Count    int                         `json:"count"`
}

type BatchEntityDescribeRequest struct {
	EntityNames []string `json:"entity_names"`
}

type BatchEntityDescribeResponse struct {
	Results []datacloud.EntityDescribe `json:"results"`
	Errors  map[string]string          `json:"errors"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

// apiVersionLabels maps REST API versions to their release names.
var apiVersionLabels = map[string]string{
	"58.0": "Summer '23",
	"59.0": "Winter '24",
	"60.0": "Spring '24",
	"61.0": "Summer '24",
	"62.0": "Winter '25",
	"63.0": "Spring '25",
	"64.0": "Summer '25",
	"65.0": "Winter '26",
}

// versionLabel resolves the release name for an API version (with or
// without the "v" prefix), falling back to the bare version string.
func versionLabel(version string) string {
	trimmed := strings.TrimPrefix(version, "v")
	if label, ok := apiVersionLabels[trimmed]; ok {
		return label
	}
	return "v" + trimmed
}
