package wnm

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	perrors "wisfind/pkg/errors"
)

// Decoded is the result of decoding one raw payload. Raw always holds the
// generic document; Message is set only when strict validation succeeded.
type Decoded struct {
	Message *Message
	Raw     map[string]interface{}
}

// Lookup resolves a field by name on the generic document. Top-level keys
// win; the properties object is consulted as a fallback so constraints can
// reach fields like data_id without spelling the nesting.
func (d *Decoded) Lookup(key string) (interface{}, bool) {
	if v, ok := d.Raw[key]; ok {
		return v, true
	}
	if props, ok := d.Raw["properties"].(map[string]interface{}); ok {
		if v, ok := props[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// MarshalJSON emits the typed message when one exists, preserving the
// unset/null field distinction, and the raw document otherwise.
func (d *Decoded) MarshalJSON() ([]byte, error) {
	if d.Message != nil {
		return json.Marshal(d.Message)
	}
	return json.Marshal(d.Raw)
}

// Decode turns a raw payload into a Decoded message. Invalid UTF-8 and
// malformed JSON are always rejected with a decode error. When strict is
// true the payload must additionally satisfy every WNM invariant or a schema
// violation naming the first failing rule is returned; when strict is false
// such payloads pass through untyped.
func Decode(payload []byte, strict bool) (*Decoded, error) {
	if !utf8.Valid(payload) {
		return nil, perrors.Decode("payload is not valid UTF-8", nil)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, perrors.Decode("payload is not a JSON object", err)
	}

	if !strict {
		return &Decoded{Raw: raw}, nil
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		// The document is well-formed JSON, so a failure here is a shape
		// problem, not a syntax problem.
		return nil, perrors.Schema("shape", err.Error()).WithCause(err)
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return &Decoded{Message: &msg, Raw: raw}, nil
}

// Validate applies every WNM invariant, returning a schema violation naming
// the first failing rule. Per-field shape checks run before the cross-field
// checks.
func (m *Message) Validate() error {
	if m.ID == "" {
		return perrors.Schema("id", "id is required")
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		return perrors.Schema("id", fmt.Sprintf("id %q is not a UUID", m.ID))
	}

	if m.Type != RecordType {
		return perrors.Schema("type", fmt.Sprintf("type must be %q, got %q", RecordType, m.Type))
	}

	if !m.Geometry.IsSet() {
		return perrors.Schema("geometry", "geometry is required (may be null)")
	}
	if g, ok := m.Geometry.Get(); ok {
		if !slices.Contains(GeometryTypes, g.Type) {
			return perrors.Schema("geometry.type", fmt.Sprintf("geometry type must be one of %s, got %q", strings.Join(GeometryTypes, ", "), g.Type))
		}
	}

	if err := m.Properties.validate(); err != nil {
		return err
	}

	if len(m.Links) == 0 {
		return perrors.Schema("links", "links must contain at least one entry")
	}
	for i, link := range m.Links {
		if err := link.validate(i); err != nil {
			return err
		}
	}

	// Cross-field invariants, checked after all per-field shapes pass.

	if err := m.validateConformance(); err != nil {
		return err
	}

	if err := m.Properties.validateTemporal(); err != nil {
		return err
	}

	if !slices.ContainsFunc(m.Links, func(l Link) bool {
		return slices.Contains(RequiredLinkRels, l.Rel)
	}) {
		return perrors.Schema("links.rel", fmt.Sprintf("at least one link must have rel of: %s", strings.Join(RequiredLinkRels, ", ")))
	}

	return nil
}

func (m *Message) validateConformance() error {
	if !m.ConformsTo.IsSet() && !m.Version.IsSet() {
		return perrors.Schema("conformance", "one of conformsTo or version is required")
	}
	if m.ConformsTo.IsSet() && m.Version.IsSet() {
		return perrors.Schema("conformance", "conformsTo and version cannot both be present")
	}
	if m.ConformsTo.IsSet() {
		classes, ok := m.ConformsTo.Get()
		if !ok || len(classes) == 0 {
			return perrors.Schema("conformsTo", "conformsTo must be a non-empty list")
		}
	}
	if m.Version.IsSet() {
		v, ok := m.Version.Get()
		if !ok || v != Version {
			return perrors.Schema("version", fmt.Sprintf("version must be %q", Version))
		}
	}
	return nil
}

func (p *Properties) validate() error {
	if p.PubTime.IsZero() {
		return perrors.Schema("properties.pubtime", "pubtime is required")
	}

	if p.DataID == "" {
		return perrors.Schema("properties.data_id", "data_id is required")
	}

	if p.Integrity != nil {
		if !slices.Contains(IntegrityMethods, p.Integrity.Method) {
			return perrors.Schema("properties.integrity.method", fmt.Sprintf("method must be one of %s, got %q", strings.Join(IntegrityMethods, ", "), p.Integrity.Method))
		}
		if p.Integrity.Value == "" {
			return perrors.Schema("properties.integrity.value", "value is required")
		}
	}

	if p.Content != nil {
		if !slices.Contains(ContentEncodings, p.Content.Encoding) {
			return perrors.Schema("properties.content.encoding", fmt.Sprintf("encoding must be one of %s, got %q", strings.Join(ContentEncodings, ", "), p.Content.Encoding))
		}
		if p.Content.Size > ContentMaxBytes {
			return perrors.Schema("properties.content.size", fmt.Sprintf("inline content cannot exceed %d bytes, got %d", ContentMaxBytes, p.Content.Size))
		}
		if p.Content.Size < 0 {
			return perrors.Schema("properties.content.size", "size cannot be negative")
		}
		if len(p.Content.Value) > ContentMaxBytes {
			return perrors.Schema("properties.content.value", fmt.Sprintf("inline content cannot exceed %d bytes", ContentMaxBytes))
		}
	}

	return nil
}

// validateTemporal enforces the either/or temporal description: datetime
// alone, or start_datetime and end_datetime together. Explicit null counts
// as supplied.
func (p *Properties) validateTemporal() error {
	if !p.Datetime.IsSet() {
		if !p.StartDatetime.IsSet() && !p.EndDatetime.IsSet() {
			return perrors.Schema("properties.datetime", "a temporal description is required")
		}
		if !p.StartDatetime.IsSet() || !p.EndDatetime.IsSet() {
			return perrors.Schema("properties.start_datetime", "start_datetime and end_datetime must both be present")
		}
		return nil
	}
	if p.StartDatetime.IsSet() || p.EndDatetime.IsSet() {
		return perrors.Schema("properties.datetime", "datetime cannot be combined with start_datetime or end_datetime")
	}
	return nil
}

func (l *Link) validate(i int) error {
	if l.Href == "" {
		return perrors.Schema(fmt.Sprintf("links[%d].href", i), "href is required")
	}
	u, err := url.Parse(l.Href)
	if err != nil || !slices.Contains(LinkSchemes, strings.ToLower(u.Scheme)) {
		return perrors.Schema(fmt.Sprintf("links[%d].href", i), fmt.Sprintf("href scheme must be one of %s", strings.Join(LinkSchemes, ", ")))
	}
	if l.Rel == "" {
		return perrors.Schema(fmt.Sprintf("links[%d].rel", i), "rel is required")
	}
	if l.Length < 0 {
		return perrors.Schema(fmt.Sprintf("links[%d].length", i), "length cannot be negative")
	}
	return nil
}
