package collection

// Param is one header or query-string entry on a request. Disabled entries
// stay in the definition but are skipped at resolution and send time.
type Param struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "apikey"
)

const (
	APIKeyInHeader = "header"
	APIKeyInQuery  = "query"
)

type AuthSpec struct {
	Type AuthType `json:"type"`

	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// bearer
	Token string `json:"token,omitempty"`

	// api key
	Key       string `json:"key,omitempty"`
	KeyValue  string `json:"keyValue,omitempty"`
	Placement string `json:"placement,omitempty"`
}

type GraphQLBody struct {
	Query         string `json:"query"`
	Variables     string `json:"variables,omitempty"`
	OperationName string `json:"operationName,omitempty"`
}

type BodySpec struct {
	Text    string       `json:"text,omitempty"`
	GraphQL *GraphQLBody `json:"graphql,omitempty"`
}

// Request is one entry in a collection. PostScript, when non-empty, runs in
// the sandbox after a response has been obtained.
type Request struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Method     string   `json:"method"`
	URL        string   `json:"url"`
	Headers    []Param  `json:"headers,omitempty"`
	Query      []Param  `json:"query,omitempty"`
	Auth       AuthSpec `json:"auth,omitempty"`
	Body       BodySpec `json:"body,omitempty"`
	PostScript string   `json:"postScript,omitempty"`
}

type Collection struct {
	Name     string    `json:"name"`
	Requests []Request `json:"requests,omitempty"`
}

// Clone returns a deep copy so resolution can substitute in place without
// touching the stored definition.
func (r Request) Clone() Request {
	out := r
	if r.Headers != nil {
		out.Headers = append([]Param(nil), r.Headers...)
	}
	if r.Query != nil {
		out.Query = append([]Param(nil), r.Query...)
	}
	if r.Body.GraphQL != nil {
		gql := *r.Body.GraphQL
		out.Body.GraphQL = &gql
	}
	return out
}
