package apiclient

// maxSearchDepth caps the recursive field search. Decoded JSON cannot
// contain cycles, but a depth cap keeps pathological nesting bounded.
const maxSearchDepth = 32

// Response is a decoded JSON response body.
type Response struct {
	URL  string
	Body any
}

// Data returns the response's data member, if the body is an object
// carrying one.
func (r Response) Data() (map[string]any, bool) {
	obj, ok := r.Body.(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := obj["data"].(map[string]any)
	return data, ok
}

// Attributes returns the attribute map of a success response, tolerating
// both {data:{attributes:{...}}} and the flat {data:{...}} shape.
func (r Response) Attributes() (map[string]any, bool) {
	data, ok := r.Data()
	if !ok {
		return nil, false
	}
	if attrs, ok := data["attributes"].(map[string]any); ok {
		return attrs, true
	}
	return data, true
}

// FindField searches the entire body depth-first for the first non-null
// value stored under key. A direct member named key is always preferred
// over any match found by descending, so a shallow match wins even though
// map iteration order is not deterministic.
func (r Response) FindField(key string) (any, bool) {
	return findField(r.Body, key, 0)
}

func findField(v any, key string, depth int) (any, bool) {
	if depth > maxSearchDepth {
		return nil, false
	}
	switch node := v.(type) {
	case map[string]any:
		if val, ok := node[key]; ok && val != nil {
			return val, true
		}
		for _, child := range node {
			if val, ok := findField(child, key, depth+1); ok {
				return val, true
			}
		}
	case []any:
		for _, child := range node {
			if val, ok := findField(child, key, depth+1); ok {
				return val, true
			}
		}
	}
	return nil, false
}
