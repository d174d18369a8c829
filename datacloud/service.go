// Package datacloud talks to the Salesforce Data Cloud (CDP) Metadata API.
// Data Cloud lives in a second credential domain: the primary session token
// is exchanged for a Data-Cloud-scoped token and instance URL, which are
// cached independently from sessions with a shorter TTL.
package datacloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sfviewer/go-schema-server/cache"
	interr "github.com/sfviewer/go-schema-server/internal/errors"
)

const (
	// Token exchange endpoint, on the Salesforce instance.
	tokenExchangePath = "/services/a360/token"

	// Metadata API paths, on the Data Cloud instance.
	metadataPath  = "/api/v1/metadata"
	dataGraphPath = "/api/v1/dataGraph/metadata"

	cdpGrantType     = "urn:salesforce:grant-type:external:cdp"
	subjectTokenType = "urn:ietf:params:oauth:token-type:access_token"

	exchangeTimeout  = 15 * time.Second
	metadataTimeout  = 30 * time.Second
	dataGraphTimeout = 60 * time.Second

	maxErrorBody = 4096
)

// CredentialCache caches exchanged Data Cloud credentials, keyed by the
// primary Salesforce instance URL. The TTL is kept below the vendor token
// lifetime to force periodic re-exchange.
type CredentialCache = cache.TTL[string, Credentials]

// EntityCache caches entity lists, keyed by instance URL + entity type
// filter.
type EntityCache = cache.TTL[string, []EntityBasicInfo]

// Service orchestrates Data Cloud metadata access for one session. A
// failed exchange is not terminal: every call that needs credentials
// retries it unless the cache already has a valid pair.
type Service struct {
	httpClient    *http.Client
	sfAccessToken string
	sfInstanceURL string

	creds       *Credentials // populated by the first successful exchange
	credCache   *CredentialCache
	entityCache *EntityCache
}

// ServiceOption defines a function type to modify a Service instance.
type ServiceOption func(*Service)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing)
func WithHTTPClient(hc *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = hc
	}
}

// NewService creates a Data Cloud orchestrator from the primary session's
// credentials. Either cache may be nil to disable that cache.
func NewService(accessToken, instanceURL string, credCache *CredentialCache, entityCache *EntityCache, options ...ServiceOption) *Service {
	s := &Service{
		httpClient:    &http.Client{},
		sfAccessToken: accessToken,
		sfInstanceURL: strings.TrimRight(instanceURL, "/"),
		credCache:     credCache,
		entityCache:   entityCache,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// exchangeToken swaps the primary access token for Data Cloud credentials.
// A non-success vendor response means Data Cloud is not enabled for the org
// and yields (nil, nil); only transport-level failures return an error.
func (s *Service) exchangeToken(ctx context.Context) (*Credentials, error) {
	cacheKey := s.sfInstanceURL
	if s.credCache != nil {
		if creds, ok := s.credCache.Get(cacheKey); ok {
			return &creds, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	form := url.Values{
		"grant_type":         {cdpGrantType},
		"subject_token":      {s.sfAccessToken},
		"subject_token_type": {subjectTokenType},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.sfInstanceURL+tokenExchangePath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "[Service.exchangeToken] build request")
	}
	req.Header.Set("Authorization", "Bearer "+s.sfAccessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.exchangeToken] token exchange")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The canonical "Data Cloud not enabled for this org" signal.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Debug().Int("status", resp.StatusCode).Str("body", interr.TruncateMessage(string(body))).
			Msg("data cloud token exchange rejected")
		return nil, nil
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		InstanceURL string `json:"instance_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "[Service.exchangeToken] decode response")
	}

	creds := Credentials{
		AccessToken: payload.AccessToken,
		InstanceURL: normalizeInstanceURL(payload.InstanceURL),
	}
	if s.credCache != nil {
		s.credCache.Put(cacheKey, creds)
	}
	return &creds, nil
}

// normalizeInstanceURL ensures the Data Cloud instance URL carries a
// scheme; the vendor sometimes returns a bare host.
func normalizeInstanceURL(instanceURL string) string {
	instanceURL = strings.TrimRight(instanceURL, "/")
	if instanceURL == "" {
		return instanceURL
	}
	if !strings.HasPrefix(instanceURL, "http://") && !strings.HasPrefix(instanceURL, "https://") {
		return "https://" + instanceURL
	}
	return instanceURL
}

// ensureCredentials performs the exchange if this service instance has no
// credentials yet. "Not enabled" and "exchange failed" surface as distinct
// errors so callers can render them differently.
func (s *Service) ensureCredentials(ctx context.Context) error {
	if s.creds != nil {
		return nil
	}
	creds, err := s.exchangeToken(ctx)
	if err != nil {
		return interr.Wrapf(interr.ErrDataCloudCredentials, "%v", err)
	}
	if creds == nil {
		return interr.ErrDataCloudDisabled
	}
	s.creds = creds
	return nil
}

// CheckEnabled reports whether Data Cloud is usable for this org: the token
// exchange must succeed and the metadata API must answer. Probe failures
// are swallowed and reported as "not enabled".
func (s *Service) CheckEnabled(ctx context.Context) bool {
	creds, err := s.exchangeToken(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("data cloud exchange failed during enablement check")
		return false
	}
	if creds == nil {
		return false
	}
	s.creds = creds

	if _, err := s.getMetadata(ctx, metadataPath, metadataTimeout); err != nil {
		log.Debug().Err(err).Msg("data cloud metadata probe failed")
		return false
	}
	return true
}

func (s *Service) entityCacheKey(entityType string) string {
	if entityType == "" {
		entityType = "all"
	}
	return s.sfInstanceURL + ":dc:" + entityType
}

// ListEntities returns Data Cloud entities. entityType may be empty (all),
// EntityTypeDataLakeObject or EntityTypeDataModelObject; the filter
// restricts which fetch paths run, not just the final list.
func (s *Service) ListEntities(ctx context.Context, entityType string, useCache bool) ([]EntityBasicInfo, error) {
	switch entityType {
	case "", EntityTypeDataLakeObject, EntityTypeDataModelObject:
	default:
		return nil, errors.Errorf("[Service.ListEntities] unknown entity type %q", entityType)
	}

	if err := s.ensureCredentials(ctx); err != nil {
		return nil, err
	}

	cacheKey := s.entityCacheKey(entityType)
	if useCache && s.entityCache != nil {
		if entities, ok := s.entityCache.Get(cacheKey); ok {
			return entities, nil
		}
	}

	entities := make([]EntityBasicInfo, 0)
	if entityType == "" || entityType == EntityTypeDataModelObject {
		entities = append(entities, s.listDMOEntities(ctx)...)
	}
	if entityType == "" || entityType == EntityTypeDataLakeObject {
		dlos, err := s.listEntitiesByType(ctx, EntityTypeDataLakeObject)
		if err != nil {
			return nil, errors.Wrap(err, "[Service.ListEntities] data lake objects")
		}
		entities = append(entities, dlos...)
	}

	if s.entityCache != nil {
		s.entityCache.Put(cacheKey, entities)
	}
	return entities, nil
}

// listDMOEntities merges Data Model Objects from the data-graph metadata
// endpoint and the plain metadata endpoint, de-duplicating by entity name
// (first seen wins). Either source failing only narrows the result.
func (s *Service) listDMOEntities(ctx context.Context) []EntityBasicInfo {
	entities := make([]EntityBasicInfo, 0)
	seen := make(map[string]bool)

	merge := func(batch []EntityBasicInfo) {
		for _, e := range batch {
			if seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			entities = append(entities, e)
		}
	}

	graphEntities, err := s.listDMOFromDataGraph(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("data graph DMO listing failed")
	} else {
		merge(graphEntities)
	}

	metadataEntities, err := s.listEntitiesByType(ctx, EntityTypeDataModelObject)
	if err != nil {
		log.Warn().Err(err).Msg("metadata DMO listing failed")
	} else {
		merge(metadataEntities)
	}

	return entities
}

// listDMOFromDataGraph derives DMO entries from data-graph definitions:
// each graph names a primary DMO and may reference further DMOs through
// its field definitions.
func (s *Service) listDMOFromDataGraph(ctx context.Context) ([]EntityBasicInfo, error) {
	body, err := s.getMetadata(ctx, dataGraphPath, dataGraphTimeout)
	if err != nil {
		return nil, err
	}

	graphs, err := parseDataGraphList(body)
	if err != nil {
		return nil, err
	}

	entities := make([]EntityBasicInfo, 0, len(graphs))
	for _, graph := range graphs {
		if isDMOName(graph.PrimaryObjectName) {
			entities = append(entities, EntityBasicInfo{
				Name:        graph.PrimaryObjectName,
				DisplayName: displayNameOrName(graph.Description, graph.PrimaryObjectName),
				EntityType:  EntityTypeDataModelObject,
				Description: graph.Description,
				IsStandard:  isStandardDMO(graph.PrimaryObjectName),
			})
		}
		for _, field := range graph.Object.Fields {
			if isDMOName(field.ReferenceTo) {
				entities = append(entities, EntityBasicInfo{
					Name:        field.ReferenceTo,
					DisplayName: field.ReferenceTo,
					EntityType:  EntityTypeDataModelObject,
					IsStandard:  isStandardDMO(field.ReferenceTo),
				})
			}
		}
	}
	return entities, nil
}

func parseDataGraphList(body []byte) ([]rawDataGraph, error) {
	var graphs []rawDataGraph
	if err := json.Unmarshal(body, &graphs); err == nil {
		return graphs, nil
	}

	var wrapped struct {
		DataGraphs []rawDataGraph `json:"dataGraphs"`
		Metadata   []rawDataGraph `json:"metadata"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, errors.Wrap(err, "unexpected data graph payload")
	}
	if wrapped.DataGraphs != nil {
		return wrapped.DataGraphs, nil
	}
	return wrapped.Metadata, nil
}

func isDMOName(name string) bool {
	return strings.Contains(name, "__dlm")
}

func isStandardDMO(name string) bool {
	return strings.HasPrefix(name, "ssot__")
}

// listEntitiesByType fetches one entity kind from the metadata endpoint.
func (s *Service) listEntitiesByType(ctx context.Context, entityType string) ([]EntityBasicInfo, error) {
	body, err := s.getMetadata(ctx, metadataPath+"?entityType="+url.QueryEscape(entityType), metadataTimeout)
	if err != nil {
		return nil, err
	}

	rawEntities, err := normalizeEntityList(body)
	if err != nil {
		return nil, err
	}

	entities := make([]EntityBasicInfo, 0, len(rawEntities))
	for _, e := range rawEntities {
		entities = append(entities, EntityBasicInfo{
			Name:        e.Name,
			DisplayName: displayNameOrName(e.DisplayName, e.Name),
			EntityType:  entityType,
			Category:    e.Category,
			Description: e.Description,
			IsStandard:  e.IsStandard,
		})
	}
	return entities, nil
}

// DescribeEntity returns the full description of one entity. An unknown
// name yields an error matching interr.ErrEntityNotFound.
func (s *Service) DescribeEntity(ctx context.Context, entityName string) (*EntityDescribe, error) {
	if err := s.ensureCredentials(ctx); err != nil {
		return nil, err
	}

	body, err := s.getMetadata(ctx, metadataPath+"?entityName="+url.QueryEscape(entityName), metadataTimeout)
	if err != nil {
		var vendorErr *interr.VendorError
		if interr.As(err, &vendorErr) && vendorErr.NotFound() {
			return nil, interr.Wrapf(interr.ErrEntityNotFound, "entity %q", entityName)
		}
		return nil, errors.Wrapf(err, "[Service.DescribeEntity] %s", entityName)
	}

	entity, err := normalizeEntityPayload(body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Service.DescribeEntity] %s", entityName)
	}

	describe := transformEntityDescribe(entity)
	return &describe, nil
}

// DescribeEntities describes many entities strictly sequentially; the
// vendor has no bulk endpoint here. Per-name errors never abort the
// remaining names.
//
// Every input name ends up in exactly one of (results, errs).
func (s *Service) DescribeEntities(ctx context.Context, entityNames []string) ([]EntityDescribe, map[string]string, error) {
	if err := s.ensureCredentials(ctx); err != nil {
		return nil, nil, err
	}

	results := make([]EntityDescribe, 0, len(entityNames))
	errs := make(map[string]string)
	for _, name := range entityNames {
		describe, err := s.DescribeEntity(ctx, name)
		if err != nil {
			errs[name] = interr.TruncateMessage(err.Error())
			continue
		}
		results = append(results, *describe)
	}
	return results, errs, nil
}

// ClearCache drops all cached entity lists, independent of TTL.
func (s *Service) ClearCache() {
	if s.entityCache != nil {
		s.entityCache.Clear()
	}
}

// getMetadata issues a GET against the Data Cloud instance using the
// exchanged credentials and returns the response body.
func (s *Service) getMetadata(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	baseURL := s.sfInstanceURL
	token := s.sfAccessToken
	if s.creds != nil {
		baseURL = s.creds.InstanceURL
		token = s.creds.AccessToken
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "data cloud get %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "data cloud get %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, interr.NewVendorError(resp.StatusCode, "", strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}
