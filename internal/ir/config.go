package ir

// EffectiveConfig is the resolver's output: one Entry per active option,
// in schema order. Inactive options never appear.
type EffectiveConfig struct {
	Crate   string  `json:"crate"`
	Entries []Entry `json:"entries"`
}

// Entry is one resolved option.
type Entry struct {
	Name        string    `json:"name"`
	Value       Value     `json:"value"`
	Stability   Stability `json:"stability"`
	Description string    `json:"description,omitempty"`

	// Overridden is true when Value came from an override instead of a default rule.
	Overridden bool `json:"overridden,omitempty"`

	// DocsOnly is true when the option is active only because
	// ignore_feature_gates() forced it for documentation.
	DocsOnly bool `json:"docs_only,omitempty"`
}

// Get returns the entry for name.
func (c *EffectiveConfig) Get(name string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether name was resolved.
func (c *EffectiveConfig) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns resolved option names in schema order.
func (c *EffectiveConfig) Names() []string {
	names := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		names[i] = e.Name
	}
	return names
}

// Values returns name -> value text.
func (c *EffectiveConfig) Values() map[string]string {
	m := make(map[string]string, len(c.Entries))
	for _, e := range c.Entries {
		m[e.Name] = e.Value.Text
	}
	return m
}

// ToIRObject converts the configuration to its canonical JSON shape:
//
//	{"crate": "...", "options": {"name": {"value": ..., "stability": "..."}}}
//
// Description is excluded so that doc edits do not change the fingerprint.
func (c *EffectiveConfig) ToIRObject() IRObject {
	opts := make(IRObject, len(c.Entries))
	for _, e := range c.Entries {
		entry := IRObject{
			"value":     e.Value.ToIRValue(),
			"kind":      IRString(e.Value.Kind),
			"stability": IRString(e.Stability),
		}
		if e.Overridden {
			entry["overridden"] = IRBool(true)
		}
		if e.DocsOnly {
			entry["docs_only"] = IRBool(true)
		}
		opts[e.Name] = entry
	}
	return IRObject{
		"crate":   IRString(c.Crate),
		"options": opts,
	}
}

// MarshalCanonical returns the RFC 8785 encoding of the configuration.
func (c *EffectiveConfig) MarshalCanonical() ([]byte, error) {
	return MarshalCanonical(c.ToIRObject())
}
