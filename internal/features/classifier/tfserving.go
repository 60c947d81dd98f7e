package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// TFServingModel calls the TensorFlow Serving REST predict API
type TFServingModel struct {
	BaseURL string
	Name    string
	Client  *retryablehttp.Client
}

type predictRequest struct {
	Instances [][InputSize][InputSize][InputChannels]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error"`
}

func (m *TFServingModel) endpoint() string {
	return fmt.Sprintf("%s/v1/models/%s:predict", strings.TrimRight(m.BaseURL, "/"), m.Name)
}

func (m *TFServingModel) Predict(ctx context.Context, input *Tensor) (float32, error) {
	if m.BaseURL == "" || m.Client == nil {
		return 0, ErrNoModel
	}

	body, err := json.Marshal(predictRequest{Instances: input[:]})
	if err != nil {
		return 0, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, m.endpoint(), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode predict response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("model server returned %d: %s", resp.StatusCode, out.Error)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("expected 1 prediction, got %d", len(out.Predictions))
	}

	return scalar(out.Predictions[0])
}

// scalar accepts both a bare score and a single-unit output vector
func scalar(raw json.RawMessage) (float32, error) {
	var f float32
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("unexpected prediction shape: %s", string(raw))
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("expected a single output unit, got %d", len(v))
	}
	return v[0], nil
}
