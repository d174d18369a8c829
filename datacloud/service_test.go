package datacloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sfviewer/go-schema-server/cache"
	interr "github.com/sfviewer/go-schema-server/internal/errors"
	"github.com/stretchr/testify/require"
)

// fakeDataCloud plays both the Salesforce instance (token exchange) and the
// Data Cloud instance (metadata API) on one test server.
type fakeDataCloud struct {
	server *httptest.Server

	exchangeCalls  atomic.Int64
	metadataCalls  atomic.Int64
	dataGraphCalls atomic.Int64

	exchangeStatus  int
	dataGraphStatus int
	dloStatus       int

	entities   map[string]any // keyed by entityName
	dmoList    []map[string]any
	dloList    []map[string]any
	dataGraphs []map[string]any
}

func newFakeDataCloud(t *testing.T) *fakeDataCloud {
	f := &fakeDataCloud{
		exchangeStatus:  http.StatusOK,
		dataGraphStatus: http.StatusOK,
		dloStatus:       http.StatusOK,
		entities:        make(map[string]any),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /services/a360/token", func(w http.ResponseWriter, r *http.Request) {
		f.exchangeCalls.Add(1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "urn:salesforce:grant-type:external:cdp", r.FormValue("grant_type"))
		require.Equal(t, "sf-token", r.FormValue("subject_token"))
		require.Equal(t, "urn:ietf:params:oauth:token-type:access_token", r.FormValue("subject_token_type"))

		if f.exchangeStatus != http.StatusOK {
			w.WriteHeader(f.exchangeStatus)
			fmt.Fprint(w, `{"error": "invalid_request"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "dc-token",
			"instance_url": f.server.URL,
		})
	})
	mux.HandleFunc("GET /api/v1/metadata", func(w http.ResponseWriter, r *http.Request) {
		f.metadataCalls.Add(1)
		require.Equal(t, "Bearer dc-token", r.Header.Get("Authorization"))

		if name := r.URL.Query().Get("entityName"); name != "" {
			entity, ok := f.entities[name]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error": "NOT_FOUND"}`)
				return
			}
			json.NewEncoder(w).Encode(entity)
			return
		}

		switch r.URL.Query().Get("entityType") {
		case EntityTypeDataLakeObject:
			if f.dloStatus != http.StatusOK {
				w.WriteHeader(f.dloStatus)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"metadata": f.dloList})
		case EntityTypeDataModelObject:
			json.NewEncoder(w).Encode(map[string]any{"metadata": f.dmoList})
		default:
			json.NewEncoder(w).Encode(map[string]any{"metadata": []any{}})
		}
	})
	mux.HandleFunc("GET /api/v1/dataGraph/metadata", func(w http.ResponseWriter, r *http.Request) {
		f.dataGraphCalls.Add(1)
		if f.dataGraphStatus != http.StatusOK {
			w.WriteHeader(f.dataGraphStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"dataGraphs": f.dataGraphs})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDataCloud) newService(options ...ServiceOption) *Service {
	return NewService("sf-token", f.server.URL, nil, nil, options...)
}

func TestCheckEnabled(t *testing.T) {
	fake := newFakeDataCloud(t)
	require.True(t, fake.newService().CheckEnabled(context.Background()))
}

func TestCheckEnabledExchangeRejected(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.exchangeStatus = http.StatusBadRequest
	require.False(t, fake.newService().CheckEnabled(context.Background()))
}

func TestListEntitiesDisabledOrg(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.exchangeStatus = http.StatusForbidden

	_, err := fake.newService().ListEntities(context.Background(), "", false)
	require.ErrorIs(t, err, interr.ErrDataCloudDisabled)
}

func TestListEntitiesRejectsUnknownType(t *testing.T) {
	fake := newFakeDataCloud(t)
	_, err := fake.newService().ListEntities(context.Background(), "SomethingElse", false)
	require.Error(t, err)
}

func TestListEntitiesMergesDataGraphAndMetadataDMOs(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.dataGraphs = []map[string]any{
		{
			"primaryObjectName": "UnifiedIndividual__dlm",
			"description":       "Unified profile graph",
			"object": map[string]any{
				"fields": []map[string]any{
					{"referenceTo": "ContactPoint__dlm"},
					{"referenceTo": ""},
				},
			},
		},
	}
	fake.dmoList = []map[string]any{
		{"name": "UnifiedIndividual__dlm", "displayName": "From Metadata"},
		{"name": "Sales__dlm", "displayName": "Sales"},
	}

	entities, err := fake.newService().ListEntities(context.Background(), EntityTypeDataModelObject, false)
	require.NoError(t, err)
	require.Len(t, entities, 3)

	byName := make(map[string]EntityBasicInfo)
	for _, e := range entities {
		byName[e.Name] = e
	}
	// First seen wins: the data-graph entry shadows the metadata duplicate.
	require.Equal(t, "Unified profile graph", byName["UnifiedIndividual__dlm"].DisplayName)
	require.Contains(t, byName, "ContactPoint__dlm")
	require.Contains(t, byName, "Sales__dlm")
}

func TestListEntitiesDMOSurvivesDataGraphFailure(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.dataGraphStatus = http.StatusInternalServerError
	fake.dmoList = []map[string]any{{"name": "Sales__dlm"}}

	entities, err := fake.newService().ListEntities(context.Background(), EntityTypeDataModelObject, false)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Equal(t, "Sales__dlm", entities[0].Name)
}

func TestListEntitiesDLOFailurePropagates(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.dloStatus = http.StatusInternalServerError

	_, err := fake.newService().ListEntities(context.Background(), EntityTypeDataLakeObject, false)
	require.Error(t, err)
}

func TestListEntitiesCache(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.dloList = []map[string]any{{"name": "Raw_Orders__dll"}}
	entityCache := cache.New[string, []EntityBasicInfo](100, 5*time.Minute)
	svc := NewService("sf-token", fake.server.URL, nil, entityCache)

	_, err := svc.ListEntities(context.Background(), EntityTypeDataLakeObject, true)
	require.NoError(t, err)
	_, err = svc.ListEntities(context.Background(), EntityTypeDataLakeObject, true)
	require.NoError(t, err)
	require.Equal(t, int64(1), fake.metadataCalls.Load())

	// Bypassing the cache refreshes it.
	_, err = svc.ListEntities(context.Background(), EntityTypeDataLakeObject, false)
	require.NoError(t, err)
	require.Equal(t, int64(2), fake.metadataCalls.Load())

	svc.ClearCache()
	_, err = svc.ListEntities(context.Background(), EntityTypeDataLakeObject, true)
	require.NoError(t, err)
	require.Equal(t, int64(3), fake.metadataCalls.Load())
}

func TestCredentialCacheSkipsExchange(t *testing.T) {
	fake := newFakeDataCloud(t)
	credCache := cache.New[string, Credentials](100, time.Hour)

	require.True(t, NewService("sf-token", fake.server.URL, credCache, nil).CheckEnabled(context.Background()))
	require.True(t, NewService("sf-token", fake.server.URL, credCache, nil).CheckEnabled(context.Background()))
	require.Equal(t, int64(1), fake.exchangeCalls.Load())
}

func TestDescribeEntity(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.entities["Order__dlm"] = map[string]any{
		"metadata": []map[string]any{
			{
				"name":       "Order__dlm",
				"entityType": EntityTypeDataModelObject,
				"fields": []map[string]any{
					{"name": "OrderId__c", "dataType": "STRING", "isPrimaryKey": true},
					{"name": "AccountId__c", "dataType": "STRING", "isForeignKey": true, "referenceTo": "Account__dlm"},
				},
			},
		},
	}

	describe, err := fake.newService().DescribeEntity(context.Background(), "Order__dlm")
	require.NoError(t, err)
	require.Equal(t, "Order__dlm", describe.Name)
	require.Equal(t, []string{"OrderId__c"}, describe.PrimaryKeys)
	require.Len(t, describe.Relationships, 1)
	require.Equal(t, "AccountId__c_rel", describe.Relationships[0].Name)
}

func TestDescribeEntityNotFound(t *testing.T) {
	fake := newFakeDataCloud(t)
	_, err := fake.newService().DescribeEntity(context.Background(), "Nope__dlm")
	require.ErrorIs(t, err, interr.ErrEntityNotFound)
}

func TestDescribeEntitiesPartialFailure(t *testing.T) {
	fake := newFakeDataCloud(t)
	fake.entities["Good__dlm"] = map[string]any{"name": "Good__dlm"}

	results, errs, err := fake.newService().DescribeEntities(context.Background(),
		[]string{"Good__dlm", "Missing__dlm"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Good__dlm", results[0].Name)
	require.Contains(t, errs, "Missing__dlm")
}

func TestNormalizeInstanceURL(t *testing.T) {
	require.Equal(t, "https://dc.example.com", normalizeInstanceURL("dc.example.com"))
	require.Equal(t, "https://dc.example.com", normalizeInstanceURL("https://dc.example.com/"))
	require.Equal(t, "http://localhost:8080", normalizeInstanceURL("http://localhost:8080"))
	require.Equal(t, "", normalizeInstanceURL(""))
}
