// Package analysis decodes and renders the server-defined analysis payload.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Known payload keys.
const (
	KeyRecommendedPathway = "recommendedPathway"
	KeyDenialSummaryCodes = "denialSummaryCodes"
	KeyRootCause          = "rootCause"
	KeyStaffInstructions  = "staffInstructions"
	KeyProviderEducation  = "providerEducation"
)

// Payload is an open record: a few optional known fields plus every other
// key in Extra. A known key whose value has an unexpected shape is kept in
// Extra rather than rejected.
type Payload struct {
	RecommendedPathway string
	DenialSummaryCodes []string
	RootCause          string
	StaffInstructions  []string
	ProviderEducation  string

	Extra map[string]any
}

// Parse decodes raw. An empty or null payload yields the zero Payload.
func Parse(raw json.RawMessage) (Payload, error) {
	var p Payload
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("analysis payload: %w", err)
	}
	*p = Payload{}
	for k, raw := range fields {
		var ok bool
		switch k {
		case KeyRecommendedPathway:
			ok = json.Unmarshal(raw, &p.RecommendedPathway) == nil
		case KeyRootCause:
			ok = json.Unmarshal(raw, &p.RootCause) == nil
		case KeyProviderEducation:
			ok = json.Unmarshal(raw, &p.ProviderEducation) == nil
		case KeyDenialSummaryCodes:
			p.DenialSummaryCodes, ok = stringList(raw)
		case KeyStaffInstructions:
			p.StaffInstructions, ok = stringList(raw)
		}
		if ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("analysis payload %q: %w", k, err)
		}
		if p.Extra == nil {
			p.Extra = map[string]any{}
		}
		p.Extra[k] = v
	}
	return nil
}

// stringList accepts a list of strings or a single string.
func stringList(raw json.RawMessage) ([]string, bool) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil, true
		}
		return []string{one}, true
	}
	return nil, false
}

// Map flattens p back to a single key space.
func (p Payload) Map() map[string]any {
	out := make(map[string]any, len(p.Extra)+5)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.RecommendedPathway != "" {
		out[KeyRecommendedPathway] = p.RecommendedPathway
	}
	if len(p.DenialSummaryCodes) > 0 {
		out[KeyDenialSummaryCodes] = p.DenialSummaryCodes
	}
	if p.RootCause != "" {
		out[KeyRootCause] = p.RootCause
	}
	if len(p.StaffInstructions) > 0 {
		out[KeyStaffInstructions] = p.StaffInstructions
	}
	if p.ProviderEducation != "" {
		out[KeyProviderEducation] = p.ProviderEducation
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (p Payload) MarshalJSON() ([]byte, error) { return json.Marshal(p.Map()) }

// MarshalYAML implements yaml.Marshaler.
func (p Payload) MarshalYAML() (any, error) { return p.Map(), nil }

// Empty reports whether p carries no content.
func (p Payload) Empty() bool { return len(p.Map()) == 0 }
