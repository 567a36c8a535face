// Package estimate talks to the external distance & route collaborator.
// The endpoint speaks a distance-matrix shaped protocol: one origin, one
// destination, a departure time, and per-element distance/duration values
// in meters and seconds.
package estimate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/config"
)

type MatrixClient struct {
	endpoint string
	client   *http.Client
}

var _ domain.Estimator = (*MatrixClient)(nil)

func NewMatrixClient(cfg config.Estimator) *MatrixClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MatrixClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
			DurationInTraffic *struct {
				Value float64 `json:"value"`
			} `json:"duration_in_traffic"`
		} `json:"elements"`
	} `json:"rows"`
}

func (c *MatrixClient) Estimate(ctx context.Context, origin, destination string, departure time.Time) (domain.RouteEstimate, error) {
	if c.endpoint == "" {
		return domain.RouteEstimate{}, fmt.Errorf("%w: estimator not configured", domain.ErrCollaborator)
	}

	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("departure_time", strconv.FormatInt(departure.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.RouteEstimate{}, fmt.Errorf("%w: build request: %v", domain.ErrCollaborator, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.RouteEstimate{}, fmt.Errorf("%w: estimator call: %v", domain.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RouteEstimate{}, fmt.Errorf("%w: estimator returned %d", domain.ErrCollaborator, resp.StatusCode)
	}

	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.RouteEstimate{}, fmt.Errorf("%w: decode estimator response: %v", domain.ErrCollaborator, err)
	}
	if body.Status != "OK" || len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return domain.RouteEstimate{}, fmt.Errorf("%w: no route information", domain.ErrCollaborator)
	}

	el := body.Rows[0].Elements[0]
	if el.Status != "" && el.Status != "OK" {
		return domain.RouteEstimate{}, fmt.Errorf("%w: element status %s", domain.ErrCollaborator, el.Status)
	}

	duration := el.Duration.Value
	if el.DurationInTraffic != nil {
		duration = el.DurationInTraffic.Value
	}
	return domain.RouteEstimate{
		DistanceMeters:  el.Distance.Value,
		DurationSeconds: duration,
	}, nil
}
