package soapobject

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

const unknownComponent = "unknown"

// Record fields used to build synthetic keys.
const (
	fieldSendID        = "sendid"
	fieldSubscriberKey = "subscriberkey"
	fieldEventDate     = "eventdate"
	fieldURLID         = "urlid"
	fieldID            = "id"
)

// eventTypes lack a natural id and are keyed by send, subscriber and date.
var eventTypes = map[string]bool{
	"SentEvent":   true,
	"BounceEvent": true,
	"ClickEvent":  true,
	"OpenEvent":   true,
	"UnsubEvent":  true,
}

// AssignKey populates primaryKey on record when it has no usable value.
//
// Event types get sendid_subscriberkey_eventdate; ClickEvent adds urlid
// before the date because one subscriber may click several links in a send.
// Missing components are "unknown" and a missing date is now. Subscriber
// falls back to its subscriber key, and a subscriber with no id also takes
// the subscriber key as id whatever the primary key is. Other types have no
// rule and keep a nil key, which the loading layer is expected to reject or
// report.
func AssignKey(record domain.NormalizedRecord, objectType, primaryKey string, now time.Time) domain.NormalizedRecord {
	if objectType == "Subscriber" {
		return assignSubscriberKey(record, primaryKey)
	}
	if _, ok := record.KeyValue(primaryKey); ok {
		return record
	}

	switch {
	case eventTypes[objectType]:
		parts := []string{
			component(record, fieldSendID),
			component(record, fieldSubscriberKey),
		}
		if objectType == "ClickEvent" {
			parts = append(parts, component(record, fieldURLID))
		}
		eventDate, ok := record.KeyValue(fieldEventDate)
		if !ok {
			eventDate = FormatTimestamp(now)
		}
		parts = append(parts, fmt.Sprint(eventDate))
		record[primaryKey] = strings.Join(parts, "_")

	default:
		if _, present := record[primaryKey]; !present {
			record[primaryKey] = nil
		}
	}
	return record
}

func assignSubscriberKey(record domain.NormalizedRecord, primaryKey string) domain.NormalizedRecord {
	key, hasKey := record.KeyValue(fieldSubscriberKey)
	if _, ok := record.KeyValue(fieldID); !ok && hasKey {
		record[fieldID] = key
	}
	if _, ok := record.KeyValue(primaryKey); ok {
		return record
	}
	if hasKey {
		record[primaryKey] = key
	} else if _, present := record[primaryKey]; !present {
		record[primaryKey] = nil
	}
	return record
}

func component(record domain.NormalizedRecord, field string) string {
	if v, ok := record.KeyValue(field); ok {
		return fmt.Sprint(v)
	}
	return unknownComponent
}
