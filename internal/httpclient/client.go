package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reqdeck/reqdeck/internal/collection"
	"github.com/reqdeck/reqdeck/internal/errdef"
)

type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
}

// Client is the external transport collaborator. It expects a fully-resolved
// request: all template substitution has already happened upstream.
type Client struct {
	httpClient *http.Client
}

type Response struct {
	Status     string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Client{httpClient: client}
}

func (c *Client) Execute(ctx context.Context, req collection.Request) (*Response, error) {
	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "execute %s %s", req.Method, req.URL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "read response body")
	}

	return &Response{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

func buildHTTPRequest(ctx context.Context, req collection.Request) (*http.Request, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, errdef.New(errdef.CodeHTTP, "request url is empty")
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request")
	}

	query := httpReq.URL.Query()
	for _, param := range req.Query {
		if !param.Enabled {
			continue
		}
		query.Add(param.Name, param.Value)
	}

	for _, header := range req.Headers {
		if !header.Enabled {
			continue
		}
		httpReq.Header.Add(header.Name, header.Value)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	applyAuthentication(httpReq, &query, req.Auth)
	httpReq.URL.RawQuery = query.Encode()
	return httpReq, nil
}

func buildBody(req collection.Request) (io.Reader, string, error) {
	if gql := req.Body.GraphQL; gql != nil {
		payload := map[string]interface{}{"query": gql.Query}
		if strings.TrimSpace(gql.Variables) != "" {
			var variables interface{}
			if err := json.Unmarshal([]byte(gql.Variables), &variables); err != nil {
				return nil, "", errdef.Wrap(errdef.CodeParse, err, "parse graphql variables")
			}
			payload["variables"] = variables
		}
		if gql.OperationName != "" {
			payload["operationName"] = gql.OperationName
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, "", errdef.Wrap(errdef.CodeHTTP, err, "encode graphql payload")
		}
		return bytes.NewReader(encoded), "application/json", nil
	}
	if req.Body.Text != "" {
		return strings.NewReader(req.Body.Text), "", nil
	}
	return nil, "", nil
}

func applyAuthentication(httpReq *http.Request, query *url.Values, auth collection.AuthSpec) {
	switch auth.Type {
	case collection.AuthBasic:
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	case collection.AuthBearer:
		if auth.Token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+auth.Token)
		}
	case collection.AuthAPIKey:
		if auth.Key == "" {
			return
		}
		if auth.Placement == collection.APIKeyInQuery {
			query.Set(auth.Key, auth.KeyValue)
			return
		}
		httpReq.Header.Set(auth.Key, auth.KeyValue)
	}
}
