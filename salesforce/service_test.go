package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sfviewer/go-schema-server/cache"
	interr "github.com/sfviewer/go-schema-server/internal/errors"
	"github.com/stretchr/testify/require"
)

const testAPIVersion = "v62.0"

// fakeSalesforce is an httptest stand-in for one org instance.
type fakeSalesforce struct {
	server *httptest.Server

	globalDescribeCalls atomic.Int64
	describeCalls       atomic.Int64
	compositeCalls      atomic.Int64

	compositeStatus int
	describes       map[string]rawObjectDescribe
	versions        []rawVersionInfo
	queryResults    map[string]QueryResult // keyed by SOQL substring
	queryErrors     map[string]string      // SOQL substring -> vendor error code
}

func newFakeSalesforce(t *testing.T) *fakeSalesforce {
	f := &fakeSalesforce{
		compositeStatus: http.StatusOK,
		describes:       make(map[string]rawObjectDescribe),
		queryResults:    make(map[string]QueryResult),
		queryErrors:     make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /services/data", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.versions)
	})
	mux.HandleFunc("GET /services/data/"+testAPIVersion+"/sobjects", func(w http.ResponseWriter, r *http.Request) {
		f.globalDescribeCalls.Add(1)
		require.Equal(t, "Bearer sf-token", r.Header.Get("Authorization"))

		summaries := make([]rawObjectSummary, 0, len(f.describes))
		for name := range f.describes {
			summaries = append(summaries, rawObjectSummary{Name: name, Label: name, Queryable: true})
		}
		summaries = append(summaries, rawObjectSummary{
			Name:  "HiddenArtifact__x",
			Label: "__MISSING LABEL__ PropertyFile - val not found",
		})
		json.NewEncoder(w).Encode(rawGlobalDescribe{Sobjects: summaries})
	})
	mux.HandleFunc("GET /services/data/"+testAPIVersion+"/sobjects/{object}/describe", func(w http.ResponseWriter, r *http.Request) {
		f.describeCalls.Add(1)
		describe, ok := f.describes[r.PathValue("object")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `[{"message": "The requested resource does not exist", "errorCode": "NOT_FOUND"}]`)
			return
		}
		json.NewEncoder(w).Encode(describe)
	})
	mux.HandleFunc("POST /services/data/"+testAPIVersion+"/composite", func(w http.ResponseWriter, r *http.Request) {
		f.compositeCalls.Add(1)
		if f.compositeStatus != http.StatusOK {
			w.WriteHeader(f.compositeStatus)
			fmt.Fprint(w, `[{"message": "boom", "errorCode": "UNKNOWN_EXCEPTION"}]`)
			return
		}

		var req compositeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.LessOrEqual(t, len(req.CompositeRequest), 25)

		var resp compositeResponse
		for _, sub := range req.CompositeRequest {
			describe, ok := f.describes[sub.ReferenceID]
			if !ok {
				body, _ := json.Marshal([]map[string]string{
					{"message": "The requested resource does not exist", "errorCode": "NOT_FOUND"},
				})
				resp.CompositeResponse = append(resp.CompositeResponse, compositeSubResponse{
					Body: body, HTTPStatusCode: http.StatusNotFound, ReferenceID: sub.ReferenceID,
				})
				continue
			}
			body, _ := json.Marshal(describe)
			resp.CompositeResponse = append(resp.CompositeResponse, compositeSubResponse{
				Body: body, HTTPStatusCode: http.StatusOK, ReferenceID: sub.ReferenceID,
			})
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /services/data/"+testAPIVersion+"/query", func(w http.ResponseWriter, r *http.Request) {
		soql := r.URL.Query().Get("q")
		for substr, code := range f.queryErrors {
			if strings.Contains(soql, substr) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, `[{"message": "query failed", "errorCode": "%s"}]`, code)
				return
			}
		}
		for substr, result := range f.queryResults {
			if strings.Contains(soql, substr) {
				json.NewEncoder(w).Encode(result)
				return
			}
		}
		json.NewEncoder(w).Encode(QueryResult{Done: true, Records: []map[string]any{}})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSalesforce) addObject(name string) {
	f.describes[name] = rawObjectDescribe{
		Name:        name,
		Label:       name,
		LabelPlural: name + "s",
		Fields:      []rawField{{Name: "Id", Label: "ID", Type: "id"}},
	}
}

func (f *fakeSalesforce) newService(objectCache *ObjectListCache) *Service {
	return NewService("sf-token", f.server.URL, testAPIVersion, objectCache)
}

func TestListObjectsFiltersAndCaches(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.addObject("Account")
	fake.addObject("Contact")
	objectCache := cache.New[string, []ObjectBasicInfo](50, 10*time.Minute)
	svc := fake.newService(objectCache)

	objects, err := svc.ListObjects(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, objects, 2) // the sentinel-labelled artifact is dropped

	_, err = svc.ListObjects(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, int64(1), fake.globalDescribeCalls.Load())

	_, err = svc.ListObjects(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, int64(2), fake.globalDescribeCalls.Load())
}

func TestListObjectsCacheIsPerInstanceAndVersion(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.addObject("Account")
	objectCache := cache.New[string, []ObjectBasicInfo](50, 10*time.Minute)

	_, err := fake.newService(objectCache).ListObjects(context.Background(), true)
	require.NoError(t, err)

	// A different API version must not be served from the same entry.
	other := NewService("sf-token", fake.server.URL, "v61.0", objectCache)
	_, ok := objectCache.Get(other.objectListCacheKey())
	require.False(t, ok)
}

func TestDescribeObjectNotFound(t *testing.T) {
	fake := newFakeSalesforce(t)
	_, err := fake.newService(nil).DescribeObject(context.Background(), "NoSuchObject")
	require.ErrorIs(t, err, interr.ErrObjectNotFound)
}

func TestDescribeObjectsBatches(t *testing.T) {
	fake := newFakeSalesforce(t)
	names := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("Custom%d__c", i)
		fake.addObject(name)
		names = append(names, name)
	}

	results, errs, err := fake.newService(nil).DescribeObjects(context.Background(), names)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, results, 30)
	require.Equal(t, int64(2), fake.compositeCalls.Load()) // 25 + 5
	require.Equal(t, int64(0), fake.describeCalls.Load())
}

func TestDescribeObjectsReportsPerObjectErrors(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.addObject("Account")

	results, errs, err := fake.newService(nil).DescribeObjects(context.Background(),
		[]string{"Account", "Bogus"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Contains(t, errs["Bogus"], "NOT_FOUND")
}

func TestDescribeObjectsFallsBackToSequential(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.compositeStatus = http.StatusInternalServerError
	fake.addObject("Account")
	fake.addObject("Contact")

	results, errs, err := fake.newService(nil).DescribeObjects(context.Background(),
		[]string{"Account", "Contact", "Bogus"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Contains(t, errs, "Bogus")
	require.Equal(t, int64(1), fake.compositeCalls.Load())
	require.Equal(t, int64(3), fake.describeCalls.Load())
}

func TestDescribeObjectsAbortsOnAuthFailure(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.compositeStatus = http.StatusUnauthorized
	fake.addObject("Account")

	_, _, err := fake.newService(nil).DescribeObjects(context.Background(), []string{"Account"})
	require.Error(t, err)
	require.ErrorIs(t, err, interr.ErrVendorAPI)
	// No sequential fallback on a rejected token.
	require.Equal(t, int64(0), fake.describeCalls.Load())
}

func TestAvailableVersions(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.versions = []rawVersionInfo{
		{Version: "61.0", Label: "Summer '24", URL: "/services/data/v61.0"},
		{Version: "63.0", Label: "Spring '25", URL: "/services/data/v63.0"},
		{Version: "62.0", Label: "Winter '25", URL: "/services/data/v62.0"},
	}

	versions, err := fake.newService(nil).AvailableVersions(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, "63.0", versions[0].Version)
	require.Equal(t, "62.0", versions[1].Version)
}

func TestOrgInfo(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.queryResults["FROM Organization"] = QueryResult{
		TotalSize: 1, Done: true,
		Records: []map[string]any{{
			"Name": "Acme", "OrganizationType": "Developer Edition",
			"IsSandbox": true, "InstanceName": "NA123",
		}},
	}

	info, err := fake.newService(nil).OrgInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Acme", info.Name)
	require.Equal(t, "Developer Edition", info.OrgType)
	require.True(t, info.IsSandbox)
	require.Equal(t, "NA123", info.InstanceName)
}

func TestMultiCurrencyDisabled(t *testing.T) {
	fake := newFakeSalesforce(t)
	// CurrencyType does not exist on single-currency orgs.
	fake.queryErrors["CurrencyType"] = "INVALID_TYPE"

	feature := fake.newService(nil).MultiCurrency(context.Background())
	require.Equal(t, FeatureDisabled, feature.State)
}

func TestMultiCurrencyEnabled(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.queryResults["CurrencyType"] = QueryResult{
		TotalSize: 1, Done: true, Records: []map[string]any{{"Id": "0"}},
	}
	fake.queryResults["DefaultCurrencyIsoCode"] = QueryResult{
		TotalSize: 1, Done: true, Records: []map[string]any{{"DefaultCurrencyIsoCode": "EUR"}},
	}

	feature := fake.newService(nil).MultiCurrency(context.Background())
	require.True(t, feature.Enabled())
	require.Equal(t, "EUR", feature.Value)
}

func TestPersonAccounts(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.describes["Account"] = rawObjectDescribe{
		Name: "Account",
		Fields: []rawField{
			{Name: "Id", Type: "id"},
			{Name: "IsPersonAccount", Type: "boolean"},
		},
	}
	require.True(t, fake.newService(nil).PersonAccounts(context.Background()).Enabled())

	fake.describes["Account"] = rawObjectDescribe{
		Name:   "Account",
		Fields: []rawField{{Name: "Id", Type: "id"}},
	}
	require.Equal(t, FeatureDisabled, fake.newService(nil).PersonAccounts(context.Background()).State)
}

func TestProfileInfo(t *testing.T) {
	fake := newFakeSalesforce(t)
	fake.queryResults["FROM User"] = QueryResult{
		TotalSize: 1, Done: true,
		Records: []map[string]any{{
			"ProfileId": "00exx0000000001",
			"Profile":   map[string]any{"Name": "System Administrator"},
		}},
	}

	profileID, profileName, err := fake.newService(nil).ProfileInfo(context.Background(), "005xx000001X8Uz")
	require.NoError(t, err)
	require.Equal(t, "00exx0000000001", profileID)
	require.Equal(t, "System Administrator", profileName)
}
