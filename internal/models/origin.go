package models

// Origin is the normalized scheme+host(+port) target of a scan.
type Origin struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"` // host[:port]
	// ImplicitScheme is set when the caller did not give a scheme and https was assumed.
	ImplicitScheme bool `json:"-"`
}

// String returns scheme://host.
func (o Origin) String() string {
	return o.Scheme + "://" + o.Host
}

// EntryURL is the document fetched to start discovery.
func (o Origin) EntryURL() string {
	return o.String() + "/"
}

// WithScheme returns a copy of the origin using another scheme.
func (o Origin) WithScheme(scheme string) Origin {
	o.Scheme = scheme
	o.ImplicitScheme = false
	return o
}
