package soap

import (
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

// fieldKind is the scalar type of a partner API property.
type fieldKind int

const (
	kindString fieldKind = iota
	kindDateTime
	kindInt
	kindFloat
	kindBool
)

// knownFieldKinds types the partner API properties used by the catalogue.
// Properties not listed here stay strings unless an xsi:type says otherwise.
var knownFieldKinds = map[string]fieldKind{
	"CreatedDate":          kindDateTime,
	"ModifiedDate":         kindDateTime,
	"EventDate":            kindDateTime,
	"SendDate":             kindDateTime,
	"SentDate":             kindDateTime,
	"UnsubscribedDate":     kindDateTime,
	"ID":                   kindInt,
	"SendID":               kindInt,
	"BatchID":              kindInt,
	"ListID":               kindInt,
	"URLID":                kindInt,
	"NumberSent":           kindInt,
	"NumberDelivered":      kindInt,
	"NumberTargeted":       kindInt,
	"NumberErrored":        kindInt,
	"NumberExcluded":       kindInt,
	"IsMasterUnsubscribed": kindBool,
}

// xsdKinds maps xsi:type values to scalar kinds.
var xsdKinds = map[string]fieldKind{
	"dateTime": kindDateTime,
	"int":      kindInt,
	"long":     kindInt,
	"short":    kindInt,
	"double":   kindFloat,
	"decimal":  kindFloat,
	"float":    kindFloat,
	"boolean":  kindBool,
}

// dateTimeLayouts are the xsd:dateTime forms returned by the service.
// Values without a zone are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// extractObject converts a Results element into a RawObject.
// Elements with children become nested RawObjects; repeated complex
// elements are collected into a []domain.RawObject. A repeated scalar
// keeps its first value; later values are logged at debug level.
func extractObject(node xmlNode) domain.RawObject {
	obj := make(domain.RawObject, len(node.Children))
	for _, child := range node.Children {
		name := child.XMLName.Local
		value := extractValue(child)

		existing, seen := obj[name]
		if !seen {
			obj[name] = value
			continue
		}

		nested, isObject := value.(domain.RawObject)
		if !isObject {
			logger.Debug("soap: property %s repeated, dropping value %v (keeping %v)", name, value, existing)
			continue
		}
		switch prev := existing.(type) {
		case domain.RawObject:
			obj[name] = []domain.RawObject{prev, nested}
		case []domain.RawObject:
			obj[name] = append(prev, nested)
		default:
			logger.Debug("soap: property %s repeated, dropping nested value (keeping %v)", name, existing)
		}
	}
	return obj
}

// extractValue converts one property element to a typed value.
func extractValue(node xmlNode) any {
	if isNil(node) {
		return nil
	}
	if len(node.Children) > 0 {
		return extractObject(node)
	}

	text := strings.TrimSpace(node.Content)
	kind := kindOf(node)
	if text == "" && kind != kindString {
		return nil
	}

	switch kind {
	case kindDateTime:
		for _, layout := range dateTimeLayouts {
			if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
				return t
			}
		}
	case kindInt:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	case kindFloat:
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	case kindBool:
		if b, err := strconv.ParseBool(text); err == nil {
			return b
		}
	default:
		return node.Content
	}

	logger.Debug("soap: property %s value %q does not match its declared type, keeping text", node.XMLName.Local, text)
	return text
}

func kindOf(node xmlNode) fieldKind {
	if t := attr(node, "type"); t != "" {
		if i := strings.LastIndex(t, ":"); i >= 0 {
			t = t[i+1:]
		}
		if kind, ok := xsdKinds[t]; ok {
			return kind
		}
	}
	return knownFieldKinds[node.XMLName.Local]
}

func isNil(node xmlNode) bool {
	return attr(node, "nil") == "true"
}

// attr returns the value of an xsi attribute on node.
func attr(node xmlNode, local string) string {
	for _, a := range node.Attrs {
		if a.Name.Local == local && (a.Name.Space == xsiNS || a.Name.Space == "xsi") {
			return a.Value
		}
	}
	return ""
}
