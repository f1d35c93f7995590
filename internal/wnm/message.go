package wnm

import (
	"encoding/json"
)

// WIS2 Notification Message (WNM) constants, pinned by the standard.
// https://wmo-im.github.io/wis2-notification-message/standard/wis2-notification-message-DRAFT.html
const (
	// RecordType is the fixed GeoJSON record type every WNM carries.
	RecordType = "Feature"

	// Version is the deprecated fixed version literal, permitted only when
	// conformsTo is absent.
	Version = "v04"

	// ContentMaxBytes is the largest payload that may be inlined via
	// properties.content; anything bigger must be referenced via links.
	ContentMaxBytes = 4096
)

// RequiredLinkRels is the set of relation types of which at least one link
// must carry one.
var RequiredLinkRels = []string{"canonical", "update", "deletion"}

// IntegrityMethods is the fixed set of accepted checksum algorithms.
var IntegrityMethods = []string{"sha256", "sha384", "sha512", "sha3-256", "sha3-384", "sha3-512"}

// ContentEncodings is the fixed set of accepted inline content encodings.
var ContentEncodings = []string{"utf-8", "base64", "gzip"}

// LinkSchemes is the fixed set of accepted link URI schemes.
var LinkSchemes = []string{"http", "https", "ftp", "sftp"}

// GeometryTypes is the fixed set of accepted non-null geometry types.
var GeometryTypes = []string{"Point", "Polygon"}

// Message is a WIS2 Notification Message: the GeoJSON Feature describing a
// single data-availability event. It is immutable once Validate has passed.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// Exactly one of ConformsTo or Version must be present; conformsTo
	// replaces version for the deprecation period.
	ConformsTo Optional[[]string] `json:"conformsTo,omitzero"`
	Version    Optional[string]   `json:"version,omitzero"`

	// Geometry must be present as a field; null means the geometry is
	// unknown or cannot be determined.
	Geometry Optional[Geometry] `json:"geometry,omitzero"`

	Properties Properties `json:"properties"`

	Links []Link `json:"links"`
}

// Geometry is a Point or Polygon in WGS 84 decimal degrees. Coordinates are
// kept raw; this system routes messages, it does not interpret shapes.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type Properties struct {
	// PubTime is when the notification was published. Required, UTC.
	PubTime Time `json:"pubtime"`

	// DataID is the producer-assigned identifier of the data. Required.
	DataID string `json:"data_id"`

	MetadataID string `json:"metadata_id,omitempty"`
	Producer   string `json:"producer,omitempty"`

	// Temporal description of the source data: either Datetime alone, or
	// StartDatetime and EndDatetime together. A field explicitly set to
	// null still counts as supplied.
	Datetime      Optional[Time] `json:"datetime,omitzero"`
	StartDatetime Optional[Time] `json:"start_datetime,omitzero"`
	EndDatetime   Optional[Time] `json:"end_datetime,omitzero"`

	Cache bool `json:"cache,omitempty"`

	Integrity *Integrity `json:"integrity,omitempty"`

	Content *Content `json:"content,omitempty"`
}

// Integrity is the checksum data consumers use to verify a download.
type Integrity struct {
	Method string `json:"method"`
	Value  string `json:"value"`
}

// Content is a small product embedded inline within the message. Only valid
// when the encoded size is at most ContentMaxBytes.
type Content struct {
	Encoding string `json:"encoding"`
	Value    string `json:"value"`
	Size     int    `json:"size"`
}

// Link points at the data the notification describes.
type Link struct {
	Href     string                 `json:"href"`
	Rel      string                 `json:"rel"`
	Type     string                 `json:"type,omitempty"`
	Length   int                    `json:"length,omitempty"`
	Security map[string]interface{} `json:"security,omitempty"`
}
