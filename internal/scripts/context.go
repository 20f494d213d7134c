package scripts

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Context is the read-only view of one completed exchange handed to a script
// run. It is built once per response and never mutated afterwards.
type Context struct {
	status   int
	headers  map[string]string
	body     interface{}
	duration time.Duration
}

// NewContext decodes the body once up front. JSON bodies become structured
// values (objects, arrays, scalars) so getData can walk them; anything else
// stays a plain string.
func NewContext(status int, header http.Header, body []byte, duration time.Duration) *Context {
	headers := make(map[string]string, len(header))
	for name, values := range header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	var decoded interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			decoded = string(body)
		}
	}
	return &Context{
		status:   status,
		headers:  headers,
		body:     decoded,
		duration: duration,
	}
}

func (c *Context) Status() int {
	return c.status
}

func (c *Context) Duration() time.Duration {
	return c.duration
}

func (c *Context) Body() interface{} {
	return c.body
}

func (c *Context) Headers() map[string]string {
	clone := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		clone[k] = v
	}
	return clone
}
