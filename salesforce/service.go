package salesforce

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sfviewer/go-schema-server/cache"
	interr "github.com/sfviewer/go-schema-server/internal/errors"
)

// compositeBatchSize is the vendor hard limit on sub-requests per
// Composite API call.
const compositeBatchSize = 25

// ObjectListCache caches org object lists, keyed by instance URL + API
// version. It is shared process-wide and injected into per-request services.
type ObjectListCache = cache.TTL[string, []ObjectBasicInfo]

// Service orchestrates describe calls for one session's credentials. A
// Service is cheap and constructed per request; only the cache is shared.
type Service struct {
	client      *Client
	instanceURL string
	apiVersion  string
	objectCache *ObjectListCache
}

// NewService creates a describe orchestrator from session credentials.
// objectCache may be nil, which disables object-list caching.
func NewService(accessToken, instanceURL, apiVersion string, objectCache *ObjectListCache, clientOptions ...ClientOption) *Service {
	return &Service{
		client:      NewClient(accessToken, instanceURL, apiVersion, clientOptions...),
		instanceURL: instanceURL,
		apiVersion:  apiVersion,
		objectCache: objectCache,
	}
}

func (s *Service) objectListCacheKey() string {
	return s.instanceURL + ":" + s.apiVersion
}

// ListObjects returns the org's sObject list (global describe), serving
// from the shared cache unless useCache is false.
func (s *Service) ListObjects(ctx context.Context, useCache bool) ([]ObjectBasicInfo, error) {
	if useCache && s.objectCache != nil {
		if objects, ok := s.objectCache.Get(s.objectListCacheKey()); ok {
			return objects, nil
		}
	}

	var raw rawGlobalDescribe
	if err := s.client.getJSON(ctx, s.client.restURL("sobjects"), &raw); err != nil {
		return nil, errors.Wrap(err, "[Service.ListObjects] global describe")
	}

	objects := transformObjectList(raw)
	if s.objectCache != nil {
		s.objectCache.Put(s.objectListCacheKey(), objects)
	}
	return objects, nil
}

// DescribeObject returns the full schema of one sObject. An unknown name
// yields an error matching interr.ErrObjectNotFound.
func (s *Service) DescribeObject(ctx context.Context, objectName string) (*ObjectDescribe, error) {
	var raw rawObjectDescribe
	err := s.client.getJSON(ctx, s.client.restURL("sobjects/"+objectName+"/describe"), &raw)
	if err != nil {
		var vendorErr *interr.VendorError
		if interr.As(err, &vendorErr) && vendorErr.NotFound() {
			return nil, interr.Wrapf(interr.ErrObjectNotFound, "object %q", objectName)
		}
		return nil, errors.Wrapf(err, "[Service.DescribeObject] %s", objectName)
	}

	describe := transformObjectDescribe(raw)
	return &describe, nil
}

// DescribeObjects describes many sObjects, batching them through the
// Composite API (25 per call). Per-object vendor failures land in the
// returned error map; a transport failure of a whole composite call falls
// back to sequential describes so no name is ever dropped. Auth failures
// abort immediately instead of doubling the vendor load through fallback.
//
// Every input name ends up in exactly one of (results, errs).
func (s *Service) DescribeObjects(ctx context.Context, objectNames []string) ([]ObjectDescribe, map[string]string, error) {
	results := make([]ObjectDescribe, 0, len(objectNames))
	errs := make(map[string]string)

	for start := 0; start < len(objectNames); start += compositeBatchSize {
		end := start + compositeBatchSize
		if end > len(objectNames) {
			end = len(objectNames)
		}
		batch := objectNames[start:end]

		batchResults, batchErrs, err := s.describeBatch(ctx, batch)
		if err != nil {
			var vendorErr *interr.VendorError
			if interr.As(err, &vendorErr) && vendorErr.AuthFailure() {
				return nil, nil, errors.Wrap(err, "[Service.DescribeObjects] composite auth failure")
			}
			log.Warn().Err(err).Int("batch_size", len(batch)).
				Msg("composite describe failed, falling back to sequential describes")
			batchResults, batchErrs = s.describeSequential(ctx, batch)
		}
		results = append(results, batchResults...)
		for name, msg := range batchErrs {
			errs[name] = msg
		}
	}
	return results, errs, nil
}

// describeBatch issues one composite call for up to compositeBatchSize
// names. The error return covers the call as a whole; per-item failures are
// reported through the map.
func (s *Service) describeBatch(ctx context.Context, batch []string) ([]ObjectDescribe, map[string]string, error) {
	subRequests := make([]compositeSubRequest, 0, len(batch))
	for _, name := range batch {
		subRequests = append(subRequests, compositeSubRequest{
			Method:      "GET",
			URL:         s.client.restPath("sobjects/" + name + "/describe"),
			ReferenceID: name,
		})
	}

	var resp compositeResponse
	req := compositeRequest{AllOrNone: false, CompositeRequest: subRequests}
	if err := s.client.postJSON(ctx, s.client.restURL("composite"), req, &resp); err != nil {
		return nil, nil, err
	}

	results := make([]ObjectDescribe, 0, len(batch))
	errs := make(map[string]string)
	seen := make(map[string]bool, len(batch))

	for _, sub := range resp.CompositeResponse {
		seen[sub.ReferenceID] = true
		if sub.HTTPStatusCode >= 200 && sub.HTTPStatusCode < 300 {
			var raw rawObjectDescribe
			if err := json.Unmarshal(sub.Body, &raw); err != nil {
				errs[sub.ReferenceID] = interr.TruncateMessage(fmt.Sprintf("unexpected describe payload: %v", err))
				continue
			}
			results = append(results, transformObjectDescribe(raw))
			continue
		}
		code, message := parseVendorErrorBody(sub.Body)
		if message == "" {
			message = fmt.Sprintf("describe failed with status %d", sub.HTTPStatusCode)
		} else if code != "" {
			message = code + ": " + message
		}
		errs[sub.ReferenceID] = interr.TruncateMessage(message)
	}

	// A well-behaved composite response answers every sub-request, but the
	// completeness invariant must not depend on that.
	for _, name := range batch {
		if !seen[name] {
			errs[name] = "no response from composite call"
		}
	}
	return results, errs, nil
}

// describeSequential is the fallback path: one describe call per name,
// errors collected per name.
func (s *Service) describeSequential(ctx context.Context, batch []string) ([]ObjectDescribe, map[string]string) {
	results := make([]ObjectDescribe, 0, len(batch))
	errs := make(map[string]string)
	for _, name := range batch {
		describe, err := s.DescribeObject(ctx, name)
		if err != nil {
			errs[name] = interr.TruncateMessage(err.Error())
			continue
		}
		results = append(results, *describe)
	}
	return results, errs
}

// AvailableVersions lists the org's supported REST API versions, newest
// first. A positive limit truncates the list.
func (s *Service) AvailableVersions(ctx context.Context, limit int) ([]ApiVersionInfo, error) {
	var raw []rawVersionInfo
	if err := s.client.getJSON(ctx, s.client.instanceURL+servicesDataPath, &raw); err != nil {
		return nil, errors.Wrap(err, "[Service.AvailableVersions]")
	}

	versions := make([]ApiVersionInfo, 0, len(raw))
	for _, v := range raw {
		versions = append(versions, ApiVersionInfo{Version: v.Version, Label: v.Label, URL: v.URL})
	}
	sortVersionsDescending(versions)
	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}
	return versions, nil
}

// OrgInfo fetches Organization display fields via SOQL.
func (s *Service) OrgInfo(ctx context.Context) (*OrgInfo, error) {
	result, err := s.client.Query(ctx,
		"SELECT Id, Name, OrganizationType, IsSandbox, InstanceName FROM Organization LIMIT 1")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.OrgInfo] organization query")
	}
	if len(result.Records) == 0 {
		return nil, errors.New("[Service.OrgInfo] no organization record")
	}

	record := result.Records[0]
	return &OrgInfo{
		Name:         recordString(record, "Name"),
		OrgType:      recordString(record, "OrganizationType"),
		IsSandbox:    recordBool(record, "IsSandbox"),
		InstanceName: recordString(record, "InstanceName"),
	}, nil
}

// MultiCurrency probes whether the org has Multi-Currency enabled; the
// value is the default currency ISO code when it is. The CurrencyType
// object only exists on multi-currency orgs, so an invalid-type error is
// the "disabled" signal rather than a failure.
func (s *Service) MultiCurrency(ctx context.Context) Feature[string] {
	if _, err := s.client.Query(ctx, "SELECT Id FROM CurrencyType LIMIT 1"); err != nil {
		var vendorErr *interr.VendorError
		if interr.As(err, &vendorErr) && vendorErr.NotFound() {
			return Feature[string]{State: FeatureDisabled}
		}
		log.Debug().Err(err).Msg("multi-currency probe failed")
		return Feature[string]{State: FeatureUnknown}
	}

	feature := Feature[string]{State: FeatureEnabled}
	// DefaultCurrencyIsoCode only exists once multi-currency is on.
	result, err := s.client.Query(ctx, "SELECT DefaultCurrencyIsoCode FROM Organization LIMIT 1")
	if err == nil && len(result.Records) > 0 {
		feature.Value = recordString(result.Records[0], "DefaultCurrencyIsoCode")
	}
	return feature
}

// PersonAccounts probes whether Person Accounts are enabled, detected by
// the presence of the Account.IsPersonAccount field.
func (s *Service) PersonAccounts(ctx context.Context) Feature[bool] {
	describe, err := s.DescribeObject(ctx, "Account")
	if err != nil {
		log.Debug().Err(err).Msg("person-accounts probe failed")
		return Feature[bool]{State: FeatureUnknown}
	}
	for _, field := range describe.Fields {
		if field.Name == "IsPersonAccount" {
			return Feature[bool]{State: FeatureEnabled, Value: true}
		}
	}
	return Feature[bool]{State: FeatureDisabled}
}

// ProfileInfo looks up the user's profile id and name.
func (s *Service) ProfileInfo(ctx context.Context, userID string) (profileID, profileName string, err error) {
	soql := fmt.Sprintf("SELECT ProfileId, Profile.Name FROM User WHERE Id = '%s'", QuoteSOQLString(userID))
	result, err := s.client.Query(ctx, soql)
	if err != nil {
		return "", "", errors.Wrap(err, "[Service.ProfileInfo] user query")
	}
	if len(result.Records) == 0 {
		return "", "", nil
	}

	record := result.Records[0]
	profileID = recordString(record, "ProfileId")
	if profile, ok := record["Profile"].(map[string]any); ok {
		if name, ok := profile["Name"].(string); ok {
			profileName = name
		}
	}
	return profileID, profileName, nil
}

func recordString(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func recordBool(record map[string]any, key string) bool {
	if v, ok := record[key].(bool); ok {
		return v
	}
	return false
}
