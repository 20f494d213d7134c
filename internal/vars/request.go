package vars

import (
	"github.com/reqdeck/reqdeck/internal/collection"
)

// ResolveRequest applies template substitution across every resolvable
// surface of a request: URL, enabled headers and query params, auth string
// fields, body text and GraphQL variables. Each field is resolved
// independently against the same snapshot, and the stored definition is left
// untouched.
func ResolveRequest(req collection.Request, snapshot Snapshot) collection.Request {
	out := req.Clone()
	out.URL = Resolve(out.URL, snapshot)

	for i, header := range out.Headers {
		if !header.Enabled {
			continue
		}
		out.Headers[i].Value = Resolve(header.Value, snapshot)
	}
	for i, param := range out.Query {
		if !param.Enabled {
			continue
		}
		out.Query[i].Value = Resolve(param.Value, snapshot)
	}

	out.Auth.Username = Resolve(out.Auth.Username, snapshot)
	out.Auth.Password = Resolve(out.Auth.Password, snapshot)
	out.Auth.Token = Resolve(out.Auth.Token, snapshot)
	out.Auth.Key = Resolve(out.Auth.Key, snapshot)
	out.Auth.KeyValue = Resolve(out.Auth.KeyValue, snapshot)

	out.Body.Text = Resolve(out.Body.Text, snapshot)
	if out.Body.GraphQL != nil {
		out.Body.GraphQL.Query = Resolve(out.Body.GraphQL.Query, snapshot)
		out.Body.GraphQL.Variables = Resolve(out.Body.GraphQL.Variables, snapshot)
		out.Body.GraphQL.OperationName = Resolve(out.Body.GraphQL.OperationName, snapshot)
	}
	return out
}
