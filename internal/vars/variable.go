package vars

type Source string

const (
	SourceManual   Source = "manual"
	SourceResponse Source = "response"
	SourceScript   Source = "script"
)

// Variable is one entry of a scope collection (Global, Environment or
// Session). Keys may repeat within a collection; the later entry shadows the
// earlier one during lookup.
type Variable struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
	Source      Source `json:"source,omitempty"`
}
