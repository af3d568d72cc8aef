package remover

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteRemover delegates background removal to a hosted HTTP service with a
// remove.bg-compatible API.
type RemoteRemover struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewRemoteRemover(endpoint, apiKey string, timeout time.Duration) *RemoteRemover {
	client := resty.New().SetTimeout(timeout)
	return &RemoteRemover{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// Remove posts the image and classifies the outcome: 200 returns the body
// bytes, 402/429 becomes QuotaError, any other status ServiceError, and a
// transport-level failure NetworkError.
func (r *RemoteRemover) Remove(ctx context.Context, image []byte) ([]byte, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", r.apiKey).
		SetFileReader("image_file", "image.jpg", bytes.NewReader(image)).
		SetFormData(map[string]string{"size": "auto"}).
		Post(r.endpoint)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode() == http.StatusOK {
		return resp.Body(), nil
	}

	message := errorMessage(resp.Body())
	switch resp.StatusCode() {
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return nil, &QuotaError{Message: message}
	default:
		return nil, &ServiceError{Status: resp.StatusCode(), Message: message}
	}
}

type apiErrorBody struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// errorMessage extracts a human-readable message from the structured error
// body, falling back to the raw response text.
func errorMessage(body []byte) string {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		first := parsed.Errors[0]
		if first.Title != "" {
			return first.Title
		}
		if first.Detail != "" {
			return first.Detail
		}
	}
	return strings.TrimSpace(string(body))
}
