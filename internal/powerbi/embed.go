// Package powerbi obtains the information a client needs to embed a BI
// report: a short-lived embed token and the report's embed URL.
package powerbi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// EmbedInfo is what a client needs to render a report.
type EmbedInfo struct {
	EmbedToken string `json:"embedToken"`
	EmbedURL   string `json:"embedUrl"`
	ReportID   string `json:"reportId"`
}

// Ref identifies a report at the BI service.  EmbedURL, when registered,
// overrides any URL the provider would derive.
type Ref struct {
	ReportID    string
	WorkspaceID string
	EmbedURL    string
}

// EmbedError reports a failure to obtain embed information.
type EmbedError struct {
	Message string
	Status  int // upstream HTTP status, 0 when no response arrived
	Err     error
}

func (e *EmbedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("powerbi embed: %s (status %d)", e.Message, e.Status)
	}
	return "powerbi embed: " + e.Message
}

func (e *EmbedError) Unwrap() error { return e.Err }

// EmbedProvider resolves embed information for one report.
type EmbedProvider interface {
	GetEmbedInfo(ctx context.Context, ref Ref) (EmbedInfo, error)
}

// HTTPProvider asks a token service for embed information.  The service
// answers GET {Endpoint}?reportId=&workspaceId= with an EmbedInfo JSON
// object, or {"error": "..."} and a non-2xx status.
type HTTPProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPProvider returns a provider with a 10 second client timeout.
func NewHTTPProvider(endpoint, apiKey string) *HTTPProvider {
	return &HTTPProvider{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *HTTPProvider) GetEmbedInfo(ctx context.Context, ref Ref) (EmbedInfo, error) {
	if strings.TrimSpace(ref.ReportID) == "" {
		return EmbedInfo{}, &EmbedError{Message: "report id is required"}
	}
	u, err := url.Parse(p.Endpoint)
	if err != nil {
		return EmbedInfo{}, &EmbedError{Message: "invalid endpoint", Err: err}
	}
	q := u.Query()
	q.Set("reportId", ref.ReportID)
	if ref.WorkspaceID != "" {
		q.Set("workspaceId", ref.WorkspaceID)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return EmbedInfo{}, &EmbedError{Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return EmbedInfo{}, &EmbedError{Message: "token service unreachable", Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return EmbedInfo{}, &EmbedError{Message: "read response", Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return EmbedInfo{}, &EmbedError{Message: msg, Status: resp.StatusCode}
	}

	var info EmbedInfo
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&info); err != nil {
		return EmbedInfo{}, &EmbedError{Message: "malformed response", Status: resp.StatusCode, Err: err}
	}
	if info.ReportID == "" {
		info.ReportID = ref.ReportID
	}
	if ref.EmbedURL != "" {
		info.EmbedURL = ref.EmbedURL
	}
	if info.EmbedURL == "" {
		return EmbedInfo{}, &EmbedError{Message: "response has no embed url", Status: resp.StatusCode}
	}
	return info, nil
}

// StaticProvider derives the embed URL from a template and issues no
// token.  It serves reports that are published for anonymous viewing and
// local development.  {reportId} and {workspaceId} are substituted.
type StaticProvider struct {
	URLTemplate string
}

func (p StaticProvider) GetEmbedInfo(_ context.Context, ref Ref) (EmbedInfo, error) {
	if strings.TrimSpace(ref.ReportID) == "" {
		return EmbedInfo{}, &EmbedError{Message: "report id is required"}
	}
	embed := ref.EmbedURL
	if embed == "" {
		embed = strings.NewReplacer(
			"{reportId}", url.QueryEscape(ref.ReportID),
			"{workspaceId}", url.QueryEscape(ref.WorkspaceID),
		).Replace(p.URLTemplate)
	}
	return EmbedInfo{EmbedURL: embed, ReportID: ref.ReportID}, nil
}
