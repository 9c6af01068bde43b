package domain

// Reserved property keys.
const (
	RedirectURIKey   = ".redirect"
	CorrelationKey   = ".xsrf"
	ScopePropertyKey = "scope"
)

// Properties is the property bag carried through the provider round trip
// inside the opaque state parameter.
type Properties struct {
	Items map[string]string `json:"items"`
}

// NewProperties creates an empty property bag.
func NewProperties() *Properties {
	return &Properties{Items: make(map[string]string)}
}

// Get returns the value stored under key.
func (p *Properties) Get(key string) (string, bool) {
	if p == nil || p.Items == nil {
		return "", false
	}
	v, ok := p.Items[key]
	return v, ok
}

// Set stores value under key.
func (p *Properties) Set(key, value string) {
	if p.Items == nil {
		p.Items = make(map[string]string)
	}
	p.Items[key] = value
}

// Delete removes key and reports whether it was present.
func (p *Properties) Delete(key string) bool {
	if p == nil || p.Items == nil {
		return false
	}
	_, ok := p.Items[key]
	delete(p.Items, key)
	return ok
}

// RedirectURI returns the URI the user agent is sent to after the callback.
func (p *Properties) RedirectURI() string {
	v, _ := p.Get(RedirectURIKey)
	return v
}

// SetRedirectURI sets the post-callback redirect target. An empty value clears it.
func (p *Properties) SetRedirectURI(uri string) {
	if uri == "" {
		p.Delete(RedirectURIKey)
		return
	}
	p.Set(RedirectURIKey, uri)
}

// Clone returns a deep copy.
func (p *Properties) Clone() *Properties {
	if p == nil {
		return nil
	}
	c := &Properties{Items: make(map[string]string, len(p.Items))}
	for k, v := range p.Items {
		c.Items[k] = v
	}
	return c
}

// Equal reports whether both bags hold exactly the same entries.
func (p *Properties) Equal(other *Properties) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.Items) != len(other.Items) {
		return false
	}
	for k, v := range p.Items {
		if ov, ok := other.Items[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
