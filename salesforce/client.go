// Package salesforce talks to the Salesforce REST API on behalf of one
// authenticated session: object listing, describes, batch describes via the
// Composite API, version discovery and SOQL queries.
package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	interr "github.com/sfviewer/go-schema-server/internal/errors"
)

const (
	servicesDataPath = "/services/data"

	requestTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a vendor error payload we read.
	maxErrorBody = 4096
)

// Client is a minimal REST client bound to one org instance and one access
// token. It is constructed per request from session credentials.
type Client struct {
	httpClient  *http.Client
	instanceURL string
	accessToken string
	apiVersion  string // includes the "v" prefix, e.g. "v62.0"
}

// ClientOption defines a function type to modify a Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the given org credentials.
func NewClient(accessToken, instanceURL, apiVersion string, options ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		instanceURL: strings.TrimRight(instanceURL, "/"),
		accessToken: accessToken,
		apiVersion:  apiVersion,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// restURL builds a versioned REST URL, e.g. restURL("sobjects") ->
// https://org/services/data/v62.0/sobjects.
func (c *Client) restURL(path string) string {
	return fmt.Sprintf("%s%s/%s/%s", c.instanceURL, servicesDataPath, c.apiVersion, strings.TrimLeft(path, "/"))
}

// restPath builds the instance-relative versioned path used inside
// composite sub-requests.
func (c *Client) restPath(path string) string {
	return fmt.Sprintf("%s/%s/%s", servicesDataPath, c.apiVersion, strings.TrimLeft(path, "/"))
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return interr.Wrapf(err, "salesforce get %s", url)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return interr.Wrapf(err, "salesforce post %s", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return interr.Wrapf(err, "salesforce post %s", url)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return interr.Wrapf(err, "salesforce request %s", req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return vendorErrorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return interr.Wrapf(err, "salesforce decode %s", req.URL.Path)
	}
	return nil
}

// vendorErrorFromResponse turns a non-2xx vendor response into a
// VendorError, pulling the structured error code out of the usual
// [{"message": ..., "errorCode": ...}] body when present.
func vendorErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	code, message := parseVendorErrorBody(body)
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	return interr.NewVendorError(resp.StatusCode, code, message)
}

func parseVendorErrorBody(body []byte) (code, message string) {
	var vendorErrs []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	}
	if err := json.Unmarshal(body, &vendorErrs); err == nil && len(vendorErrs) > 0 {
		return vendorErrs[0].ErrorCode, vendorErrs[0].Message
	}

	var single struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(body, &single); err == nil {
		if single.ErrorCode != "" || single.Message != "" {
			return single.ErrorCode, single.Message
		}
		if single.Error != "" {
			return single.Error, single.Error
		}
	}
	return "", ""
}

// Query runs a SOQL query.
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	u := c.restURL("query") + "?q=" + url.QueryEscape(soql)
	var result QueryResult
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QuoteSOQLString escapes a value for interpolation into a single-quoted
// SOQL literal.
func QuoteSOQLString(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
