package plantid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agri-assist-service/internal/catalog"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const testKey = "plant-key"

func testClient(baseURL string) *Client {
	return NewClient(testKey, baseURL, 5*time.Second, catalog.MustLoad().Advisory,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

var leaf = domain.Image{Name: "leaf.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}

func TestClient_Identify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pests", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("Api-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req identifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Images, 1)
		raw, err := base64.StdEncoding.DecodeString(req.Images[0])
		require.NoError(t, err)
		assert.Equal(t, leaf.Data, raw)
		assert.Equal(t, []string{"crops_fast", "similar_images"}, req.Modifiers)
		assert.Equal(t, "en", req.PlantLanguage)
		assert.Equal(t, []string{"common_names", "url", "description", "taxonomy"}, req.PlantDetails)

		_, _ = w.Write([]byte(`{"suggestions": [
			{"plant_name": "Green peach aphid", "probability": 0.92,
			 "plant_details": {"taxonomy": {"genus": "Myzus"}, "description": {"value": "Sap-sucking insect."}}},
			{"plant_name": "Whitefly", "probability": 0.61,
			 "plant_details": {"description": "Tiny white insects."}},
			{"probability": 0.3},
			{"plant_name": "Thrips", "probability": 0.2}
		]}`))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Identify(context.Background(), leaf)
	require.NoError(t, err)

	require.Len(t, res.DetectedPests, 3, "only the top three suggestions are kept")

	aphid := res.DetectedPests[0]
	assert.Equal(t, "pest-0", aphid.PestID)
	assert.Equal(t, "Green peach aphid", aphid.Name)
	assert.Equal(t, "Myzus", aphid.ScientificName)
	assert.Equal(t, "Sap-sucking insect.", aphid.Description)
	assert.Equal(t, domain.SeverityHigh, aphid.Severity)
	assert.Equal(t, []string{"Curled leaves", "Sticky honeydew", "Yellowing", "Stunted growth"}, aphid.DamageSymptoms)
	assert.Len(t, aphid.OrganicTreatments, 2)
	assert.Len(t, aphid.PreventiveMeasures, 5)

	whitefly := res.DetectedPests[1]
	assert.Equal(t, "Tiny white insects.", whitefly.Description)
	assert.Equal(t, "Unknown", whitefly.ScientificName)
	assert.Equal(t, domain.SeverityMedium, whitefly.Severity)
	assert.Contains(t, whitefly.DamageSymptoms, "Holes in leaves")

	unnamed := res.DetectedPests[2]
	assert.Equal(t, "Unknown Pest", unnamed.Name)
	assert.Equal(t, domain.SeverityLow, unnamed.Severity)
	assert.Equal(t, "Pest detected in uploaded image", unnamed.Description)

	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, "leaf.jpg", res.ImageRef)
	assert.Len(t, res.Treatment, 6, "high severity top pest escalates the plan")
}

func TestClient_Identify_NoSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"suggestions": []}`))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Identify(context.Background(), leaf)
	require.NoError(t, err)
	assert.Empty(t, res.DetectedPests)
	assert.InDelta(t, 0.5, res.Confidence, 0)
	assert.Equal(t, []string{"No specific pests detected. Continue regular monitoring."}, res.Treatment)
}

func TestClient_Identify_MissingProbability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"suggestions": [{"plant_name": "Mealybug"}]}`))
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Identify(context.Background(), leaf)
	require.NoError(t, err)
	require.Len(t, res.DetectedPests, 1)
	assert.InDelta(t, 0.5, res.DetectedPests[0].Confidence, 0)
	assert.Equal(t, domain.SeverityLow, res.DetectedPests[0].Severity)
}

func TestClient_Identify_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind domain.ErrorKind
	}{
		{"unauthorized", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}, domain.KindStatus},
		{"quota exceeded", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"no credits"}`))
		}, domain.KindStatus},
		{"truncated body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"suggestions": [`))
		}, domain.KindDecode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := testClient(srv.URL).Identify(context.Background(), leaf)
			assert.Equal(t, tc.wantKind, domain.KindOf(err))
		})
	}
}

func TestClient_Identify_MissingKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer srv.Close()

	c := testClient(srv.URL)
	c.apiKey = ""

	_, err := c.Identify(context.Background(), leaf)
	assert.True(t, errors.Is(err, domain.ErrMissingAPIKey))
	assert.Equal(t, int32(0), calls.Load())
}
