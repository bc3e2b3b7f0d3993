package models

// Finding is a validated, deduplicated, category-tagged result.
type Finding struct {
	Category Category      `json:"category"`
	Value    string        `json:"value"`
	Severity Severity      `json:"severity"`
	RuleID   string        `json:"rule_id"`
	Refs     []ResourceRef `json:"refs"`
}

// AddRef appends ref unless a ref with the same URL is already present.
func (f *Finding) AddRef(ref ResourceRef) {
	for _, existing := range f.Refs {
		if existing.URL == ref.URL {
			return
		}
	}
	f.Refs = append(f.Refs, ref)
}

// RefURLs returns the contributing resource URLs in order.
func (f Finding) RefURLs() []string {
	urls := make([]string, 0, len(f.Refs))
	for _, ref := range f.Refs {
		urls = append(urls, ref.URL)
	}
	return urls
}
