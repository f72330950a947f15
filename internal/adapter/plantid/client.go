// Package plantid identifies crop pests in photos using the plant.id API.
package plantid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/agri-assist-service/internal/catalog"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const (
	serviceName = "plantid"

	// DefaultBaseURL is the plant.id v2 identification root.
	DefaultBaseURL = "https://api.plant.id/v2/identify"

	maxSuggestions    = 3
	defaultConfidence = 0.5
	typicalLifecycle  = "15-30 days (typical)"
)

// Client implements domain.PestClassifier.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	advisory   catalog.Advisory
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a plant.id client. advisory supplies the treatments and
// symptoms attached to each suggestion.
func NewClient(apiKey, baseURL string, timeout time.Duration, advisory catalog.Advisory, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		advisory:   advisory,
		logger:     logger,
		metrics:    metrics,
	}
}

// Identify uploads img and maps the top three suggestions to detected pests.
func (c *Client) Identify(ctx context.Context, img domain.Image) (domain.PestDetectionResult, error) {
	if c.apiKey == "" {
		return domain.PestDetectionResult{}, domain.MissingKeyError(serviceName)
	}

	payload, err := json.Marshal(identifyRequest{
		Images:        []string{base64.StdEncoding.EncodeToString(img.Data)},
		Modifiers:     []string{"crops_fast", "similar_images"},
		PlantLanguage: "en",
		PlantDetails:  []string{"common_names", "url", "description", "taxonomy"},
	})
	if err != nil {
		return domain.PestDetectionResult{}, domain.NewUpstreamError(serviceName, domain.KindTransport, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pests", bytes.NewReader(payload))
	if err != nil {
		return domain.PestDetectionResult{}, domain.NewUpstreamError(serviceName, domain.KindTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	start := time.Now()
	body, err := c.send(req)
	c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
		return domain.PestDetectionResult{}, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()

	pests := make([]domain.DetectedPest, 0, maxSuggestions)
	for i, s := range body.Suggestions {
		if i == maxSuggestions {
			break
		}
		pests = append(pests, c.toPest(i, s))
	}

	confidence := defaultConfidence
	if len(pests) > 0 {
		confidence = pests[0].Confidence
	}
	c.logger.Debug("plant.id identification", "image", img.Name, "suggestions", len(body.Suggestions))

	return domain.PestDetectionResult{
		ID:            "detection-" + uuid.NewString(),
		ImageRef:      img.Name,
		UploadedAt:    domain.Now(),
		DetectedPests: pests,
		Confidence:    confidence,
		CropType:      "unknown",
		Location:      domain.UnknownLocation(),
		Status:        domain.StatusCompleted,
		Treatment:     domain.TreatmentPlan(pests),
	}, nil
}

func (c *Client) send(req *http.Request) (identifyResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return identifyResponse{}, domain.NewUpstreamError(serviceName, domain.KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return identifyResponse{}, domain.StatusError(serviceName, resp.StatusCode, body)
	}

	var out identifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return identifyResponse{}, domain.NewUpstreamError(serviceName, domain.KindDecode, fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

func (c *Client) toPest(i int, s suggestion) domain.DetectedPest {
	confidence := defaultConfidence
	if s.Probability != nil && *s.Probability > 0 {
		confidence = *s.Probability
	}

	name := s.PlantName
	if name == "" {
		name = "Unknown Pest"
	}
	scientific := s.PlantDetails.Taxonomy.Genus
	if scientific == "" {
		scientific = "Unknown"
	}
	description := s.PlantDetails.Description.Value
	if description == "" {
		description = "Pest detected in uploaded image"
	}

	symptoms := c.advisory.CommonSymptoms
	if strings.Contains(strings.ToLower(s.PlantName), "aphid") {
		symptoms = c.advisory.AphidSymptoms
	}

	return domain.DetectedPest{
		PestID:              fmt.Sprintf("pest-%d", i),
		Name:                name,
		ScientificName:      scientific,
		Confidence:          confidence,
		Severity:            domain.SeverityFromConfidence(confidence),
		Description:         description,
		Lifecycle:           typicalLifecycle,
		DamageSymptoms:      append([]string(nil), symptoms...),
		FavorableConditions: append([]string(nil), c.advisory.FavorableConditions...),
		OrganicTreatments:   append([]domain.Treatment(nil), c.advisory.OrganicTreatments...),
		ChemicalTreatments:  []domain.Treatment{},
		PreventiveMeasures:  append([]string(nil), c.advisory.PreventiveMeasures...),
	}
}

// plant.id API request and response types.

type identifyRequest struct {
	Images        []string `json:"images"`
	Modifiers     []string `json:"modifiers"`
	PlantLanguage string   `json:"plant_language"`
	PlantDetails  []string `json:"plant_details"`
}

type identifyResponse struct {
	Suggestions []suggestion `json:"suggestions"`
}

type suggestion struct {
	PlantName    string   `json:"plant_name"`
	Probability  *float64 `json:"probability"`
	PlantDetails struct {
		Taxonomy struct {
			Genus string `json:"genus"`
		} `json:"taxonomy"`
		Description description `json:"description"`
	} `json:"plant_details"`
}

// description is either a bare string or an object with a value field.
type description struct {
	Value string `json:"value"`
}

func (d *description) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		return json.Unmarshal(b, &d.Value)
	default:
		type plain description
		return json.Unmarshal(b, (*plain)(d))
	}
}
