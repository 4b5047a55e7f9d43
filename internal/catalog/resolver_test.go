package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"semisto-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := DefaultBundle()
	require.NoError(t, err)
	return b
}

func remoteResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewResolver(srv.URL, true, 100*time.Millisecond, testBundle(t))
}

func TestDefaultBundleIsValid(t *testing.T) {
	b := testBundle(t)

	assert.NotEmpty(t, b.Labs)
	assert.NotEmpty(t, b.Products)
	assert.NotEmpty(t, b.PickupLocations)
	assert.Positive(t, b.ImpactStats.TreesPlanted)
}

func TestLoadBundleRejectsMalformedSnapshot(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"labs": [`},
		{"unknown key", `{"labz": []}`},
		{"missing collections", `{"labs": [{"id": "l", "slug": "l", "name": "L", "country": "BE"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBundle([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestFetchDisabledReturnsSnapshot(t *testing.T) {
	b := testBundle(t)
	r := NewResolver("http://127.0.0.1:1", false, time.Second, b)
	ctx := context.Background()

	assert.Equal(t, b.Labs, Fetch(ctx, r, Labs))
	assert.Equal(t, b.Courses, Fetch(ctx, r, Courses))
	assert.Equal(t, b.Events, Fetch(ctx, r, Events))
	assert.Equal(t, b.Projects, Fetch(ctx, r, Projects))
	assert.Equal(t, b.Products, Fetch(ctx, r, Products))
	assert.Equal(t, b.Articles, Fetch(ctx, r, Articles))
	assert.Equal(t, b.PressItems, Fetch(ctx, r, PressItems))
	assert.Equal(t, b.Resources, Fetch(ctx, r, Resources))
	assert.Equal(t, b.Worksites, Fetch(ctx, r, Worksites))
	assert.Equal(t, b.ImpactStats, Fetch(ctx, r, Impact))
}

func TestFetchDisabledNeverCallsRemote(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, false, time.Second, testBundle(t))
	_ = r.Labs(context.Background())

	assert.Zero(t, calls.Load())
}

func TestFetchRemoteSuccess(t *testing.T) {
	r := remoteResolver(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/website/labs", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": "lab-x", "slug": "x", "name": "Lab X", "country": "LU"}]`))
	})

	labs := r.Labs(context.Background())

	require.Len(t, labs, 1)
	assert.Equal(t, "lab-x", labs[0].ID)
}

func TestFetchRemoteFailuresFallBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"id": `))
		}},
		{"null body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		}},
		{"wrong shape", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"labs": []}`))
		}},
		{"invalid entity", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"slug": "no-id", "name": "Nameless"}]`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBundle(t)
			r := remoteResolver(t, tt.handler)

			labs := r.Labs(context.Background())

			assert.Equal(t, b.Labs, labs)
			assert.NotEmpty(t, labs)
		})
	}
}

func TestFetchUnreachableRemoteFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	b := testBundle(t)
	r := NewResolver(url, true, time.Second, b)

	assert.Equal(t, b.Products, r.Products(context.Background(), ""))
}

func TestFetchReResolvesOnEveryCall(t *testing.T) {
	var calls atomic.Int32
	r := remoteResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"treesPlanted": 1, "hectares": 1}`))
	})

	_ = r.ImpactStats(context.Background())
	_ = r.ImpactStats(context.Background())

	assert.Equal(t, int32(2), calls.Load())
}

func TestLabNarrowingAppliesToRemoteData(t *testing.T) {
	r := remoteResolver(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": "c1", "slug": "c1", "labId": "lab-a", "title": "A", "price": 10, "spotsTotal": 5, "spotsAvailable": 5},
			{"id": "c2", "slug": "c2", "labId": "lab-b", "title": "B", "price": 10, "spotsTotal": 5, "spotsAvailable": 1}
		]`))
	})

	courses := r.Courses(context.Background(), "lab-b")

	require.Len(t, courses, 1)
	assert.Equal(t, "c2", courses[0].ID)
}

func TestLabNarrowingAppliesToSnapshot(t *testing.T) {
	r := NewResolver("", false, time.Second, testBundle(t))
	ctx := context.Background()

	events := r.Events(ctx, "lab-wb")
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, "lab-wb", e.LabID)
	}

	assert.Empty(t, r.Projects(ctx, "lab-unknown"))
	assert.Len(t, r.Courses(ctx, ""), len(testBundle(t).Courses))
}

func TestProductsByCountry(t *testing.T) {
	r := NewResolver("", false, time.Second, testBundle(t))

	for _, p := range r.Products(context.Background(), "FR") {
		assert.Contains(t, p.Countries, "FR")
	}
	_, ok := r.ProductByID(context.Background(), "prod-3")
	assert.True(t, ok)
}

func TestLookupsBySlug(t *testing.T) {
	r := NewResolver("", false, time.Second, testBundle(t))
	ctx := context.Background()

	lab, ok := r.LabBySlug(ctx, "wallonie-bruxelles")
	require.True(t, ok)
	assert.Equal(t, "lab-wb", lab.ID)

	_, ok = r.ArticleBySlug(ctx, "does-not-exist")
	assert.False(t, ok)

	assert.Contains(t, r.LabSlugs(ctx), "vlaanderen")
}

func TestFallbackValuesAreCopies(t *testing.T) {
	b := testBundle(t)
	r := NewResolver("", false, time.Second, b)

	labs := r.Labs(context.Background())
	labs[0].Name = "mutated"

	assert.NotEqual(t, "mutated", b.Labs[0].Name)
}

func TestByLabEmptyKeepsAll(t *testing.T) {
	items := []models.Event{{ID: "a", LabID: "x"}, {ID: "b", LabID: "y"}}
	assert.Equal(t, items, ByLab(items, ""))
}
