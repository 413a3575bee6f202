package marketingcloud

import "github.com/custodia-labs/sfmc-extract/internal/core/domain"

// DefaultDaysBack is the lookback window for incremental object types.
const DefaultDaysBack = 4

// Event object types share the send/subscriber/date composite identity.
const (
	ObjectBounceEvent = "BounceEvent"
	ObjectClickEvent  = "ClickEvent"
	ObjectOpenEvent   = "OpenEvent"
	ObjectSend        = "Send"
	ObjectSentEvent   = "SentEvent"
	ObjectSubscriber  = "Subscriber"
	ObjectUnsubEvent  = "UnsubEvent"
)

// DefaultObjectTypes returns the built-in object type catalogue in extraction order.
// Event types are high volume and filtered by EventDate. Subscriber does not
// support date filtering and is always fully loaded.
func DefaultObjectTypes(daysBack int) []domain.ObjectTypeSpec {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}

	return []domain.ObjectTypeSpec{
		{
			ObjectType: ObjectBounceEvent,
			Properties: []string{
				"SendID", "SubscriberKey", "EventDate", "EventType", "BounceCategory", "BounceType",
				"SMTPCode", "SMTPReason", "BatchID", "TriggeredSendDefinitionObjectID",
			},
			FilterProperty: "EventDate",
			DaysBack:       daysBack,
			PrimaryKey:     "id",
		},
		{
			ObjectType: ObjectClickEvent,
			Properties: []string{
				"SendID", "SubscriberKey", "EventDate", "EventType", "URL", "URLID",
				"BatchID", "TriggeredSendDefinitionObjectID",
			},
			FilterProperty: "EventDate",
			DaysBack:       daysBack,
			PrimaryKey:     "id",
		},
		{
			ObjectType: ObjectOpenEvent,
			Properties: []string{
				"SendID", "SubscriberKey", "EventDate", "EventType", "BatchID", "TriggeredSendDefinitionObjectID",
			},
			FilterProperty: "EventDate",
			DaysBack:       daysBack,
			PrimaryKey:     "id",
		},
		{
			ObjectType: ObjectSend,
			Properties: []string{
				"ID", "CreatedDate", "ModifiedDate", "Client.ID", "Email.ID", "SendDate", "FromName",
				"FromAddress", "Status", "Subject", "EmailName", "NumberSent", "NumberDelivered",
				"NumberTargeted", "NumberErrored", "NumberExcluded", "PreviewURL",
			},
			FilterProperty: "CreatedDate",
			DaysBack:       daysBack,
			PrimaryKey:     "id",
		},
		{
			ObjectType: ObjectSentEvent,
			Properties: []string{
				"SendID", "SubscriberKey", "EventDate", "EventType", "ListID", "BatchID",
				"TriggeredSendDefinitionObjectID",
			},
			FilterProperty: "EventDate",
			DaysBack:       daysBack,
			PrimaryKey:     "id",
		},
		{
			ObjectType: ObjectSubscriber,
			Properties: []string{
				"ID", "SubscriberKey", "EmailAddress", "Status", "CreatedDate", "EmailTypePreference",
				"UnsubscribedDate",
			},
			DaysBack:   daysBack,
			FullLoad:   true,
			PrimaryKey: "subscriberkey",
		},
		{
			ObjectType: ObjectUnsubEvent,
			Properties: []string{
				"SendID", "SubscriberKey", "EventDate", "EventType", "IsMasterUnsubscribed", "BatchID",
				"TriggeredSendDefinitionObjectID",
			},
			FilterProperty: "EventDate",
			DaysBack:       daysBack,
			PrimaryKey:     "id",
		},
	}
}
