package scripts

import "testing"

func TestLookupPath(t *testing.T) {
	t.Parallel()

	body := map[string]interface{}{
		"access_token": "tok_1",
		"data": map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"id": float64(7)},
				map[string]interface{}{"id": float64(9)},
			},
		},
	}

	cases := []struct {
		path string
		want interface{}
		ok   bool
	}{
		{"access_token", "tok_1", true},
		{"data.items[1].id", float64(9), true},
		{`data["items"][0].id`, float64(7), true},
		{"data.items[2].id", nil, false},
		{"data.items[-1]", nil, false},
		{"data.missing.deeper", nil, false},
		{"access_token.nested", nil, false},
		{"data.items[x]", nil, false},
		{"", nil, false},
		{"data.items[", nil, false},
	}

	for _, tc := range cases {
		got, ok := lookupPath(body, tc.path)
		if ok != tc.ok {
			t.Fatalf("path %q: expected ok=%v, got %v", tc.path, tc.ok, ok)
		}
		if ok && got != tc.want {
			t.Fatalf("path %q: expected %v, got %v", tc.path, tc.want, got)
		}
	}
}

func TestLookupPathNeverPanics(t *testing.T) {
	t.Parallel()

	inputs := []interface{}{nil, "scalar", float64(3), []interface{}{1, 2}}
	for _, body := range inputs {
		if _, ok := lookupPath(body, "a.b[0]"); ok {
			t.Fatalf("expected miss for body %v", body)
		}
	}
}
