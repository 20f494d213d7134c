package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reqdeck/reqdeck/internal/collection"
)

func TestExecuteAppliesHeadersParamsAndAuth(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	client := NewClient(Options{})
	resp, err := client.Execute(context.Background(), collection.Request{
		Method: "get",
		URL:    server.URL + "/users",
		Headers: []collection.Param{
			{Name: "X-On", Value: "yes", Enabled: true},
			{Name: "X-Off", Value: "no", Enabled: false},
		},
		Query: []collection.Param{
			{Name: "limit", Value: "10", Enabled: true},
			{Name: "skip", Value: "5", Enabled: false},
		},
		Auth: collection.AuthSpec{Type: collection.AuthBearer, Token: "tok"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if resp.Duration <= 0 {
		t.Fatalf("expected measured duration")
	}

	if seen.Header.Get("X-On") != "yes" {
		t.Fatalf("enabled header missing")
	}
	if seen.Header.Get("X-Off") != "" {
		t.Fatalf("disabled header must not be sent")
	}
	if seen.Header.Get("Authorization") != "Bearer tok" {
		t.Fatalf("bearer auth missing, got %q", seen.Header.Get("Authorization"))
	}
	query := seen.URL.Query()
	if query.Get("limit") != "10" {
		t.Fatalf("enabled query param missing")
	}
	if query.Has("skip") {
		t.Fatalf("disabled query param must not be sent")
	}
}

func TestExecuteBasicAndAPIKeyAuth(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
	}))
	defer server.Close()

	client := NewClient(Options{})
	if _, err := client.Execute(context.Background(), collection.Request{
		Method: "GET",
		URL:    server.URL,
		Auth: collection.AuthSpec{
			Type:     collection.AuthBasic,
			Username: "alice",
			Password: "secret",
		},
	}); err != nil {
		t.Fatalf("execute basic: %v", err)
	}
	user, pass, ok := seen.BasicAuth()
	if !ok || user != "alice" || pass != "secret" {
		t.Fatalf("basic auth not applied")
	}

	if _, err := client.Execute(context.Background(), collection.Request{
		Method: "GET",
		URL:    server.URL,
		Auth: collection.AuthSpec{
			Type:      collection.AuthAPIKey,
			Key:       "api_key",
			KeyValue:  "k-1",
			Placement: collection.APIKeyInQuery,
		},
	}); err != nil {
		t.Fatalf("execute apikey: %v", err)
	}
	if seen.URL.Query().Get("api_key") != "k-1" {
		t.Fatalf("api key query placement not applied: %s", seen.URL.RawQuery)
	}
}

func TestExecuteGraphQLBody(t *testing.T) {
	t.Parallel()

	var payload map[string]interface{}
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &payload)
	}))
	defer server.Close()

	client := NewClient(Options{})
	if _, err := client.Execute(context.Background(), collection.Request{
		Method: "POST",
		URL:    server.URL + "/graphql",
		Body: collection.BodySpec{GraphQL: &collection.GraphQLBody{
			Query:         "query($id:ID!){user(id:$id){name}}",
			Variables:     `{"id":"42"}`,
			OperationName: "GetUser",
		}},
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if contentType != "application/json" {
		t.Fatalf("unexpected content type %q", contentType)
	}
	if payload["query"] != "query($id:ID!){user(id:$id){name}}" {
		t.Fatalf("unexpected query %v", payload["query"])
	}
	variables, _ := payload["variables"].(map[string]interface{})
	if variables["id"] != "42" {
		t.Fatalf("unexpected variables %v", payload["variables"])
	}
	if payload["operationName"] != "GetUser" {
		t.Fatalf("unexpected operation name %v", payload["operationName"])
	}
}

func TestExecuteTransportError(t *testing.T) {
	t.Parallel()

	client := NewClient(Options{})
	resp, err := client.Execute(context.Background(), collection.Request{
		Method: "GET",
		URL:    "http://127.0.0.1:1/unreachable",
	})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if resp != nil {
		t.Fatalf("no response expected on transport failure")
	}
}

func TestExecuteRejectsBadGraphQLVariables(t *testing.T) {
	t.Parallel()

	client := NewClient(Options{})
	_, err := client.Execute(context.Background(), collection.Request{
		Method: "POST",
		URL:    "http://example.com",
		Body: collection.BodySpec{GraphQL: &collection.GraphQLBody{
			Query:     "{me{id}}",
			Variables: "{not json",
		}},
	})
	if err == nil {
		t.Fatalf("expected parse error for malformed variables")
	}
}
