package soap

import (
	"encoding/xml"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

// XML namespaces used by the partner API.
const (
	envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	xsiNS      = "http://www.w3.org/2001/XMLSchema-instance"
	fuelNS     = "http://exacttarget.com"
	partnerNS  = "http://exacttarget.com/wsdl/partnerAPI"
)

// StatusMoreDataAvailable is the OverallStatus signalling another page.
const StatusMoreDataAvailable = "MoreDataAvailable"

// dateValueLayout is the xsd:dateTime form sent in filters.
const dateValueLayout = "2006-01-02T15:04:05Z07:00"

// RetrieveRequest is the body of a Retrieve operation.
// Initial requests carry Properties and an optional Filter; continuation
// requests carry only ObjectType and ContinueRequest.
type RetrieveRequest struct {
	ObjectType      string            `xml:"ObjectType"`
	Properties      []string          `xml:"Properties,omitempty"`
	Filter          *SimpleFilterPart `xml:"Filter,omitempty"`
	ContinueRequest string            `xml:"ContinueRequest,omitempty"`
}

// IsContinuation reports whether the request continues a prior result set.
func (r *RetrieveRequest) IsContinuation() bool {
	return r.ContinueRequest != ""
}

// SimpleFilterPart filters a Retrieve on a single date property.
type SimpleFilterPart struct {
	XSIType        string `xml:"xsi:type,attr"`
	Property       string `xml:"Property"`
	SimpleOperator string `xml:"SimpleOperator"`
	DateValue      string `xml:"DateValue"`
}

// NewDateFilter builds a SimpleFilterPart comparing property against value.
func NewDateFilter(property, operator string, value time.Time) *SimpleFilterPart {
	return &SimpleFilterPart{
		XSIType:        "SimpleFilterPart",
		Property:       property,
		SimpleOperator: operator,
		DateValue:      value.UTC().Format(dateValueLayout),
	}
}

// RetrieveResponse is the decoded result of one Retrieve round trip.
type RetrieveResponse struct {
	OverallStatus string
	RequestID     string
	Objects       []domain.RawObject
}

// MoreData reports whether the server has another page for this request.
func (r *RetrieveResponse) MoreData() bool {
	return r.OverallStatus == StatusMoreDataAvailable
}

// requestEnvelope is the outbound SOAP 1.1 envelope.
type requestEnvelope struct {
	XMLName  xml.Name      `xml:"s:Envelope"`
	XmlnsS   string        `xml:"xmlns:s,attr"`
	XmlnsXSI string        `xml:"xmlns:xsi,attr"`
	Header   requestHeader `xml:"s:Header"`
	Body     requestBody   `xml:"s:Body"`
}

// requestHeader carries the vendor authentication element.
// fueloauth must be the first child of the header.
type requestHeader struct {
	FuelOAuth fuelOAuth `xml:"fueloauth"`
}

type fuelOAuth struct {
	XMLName xml.Name `xml:"http://exacttarget.com fueloauth"`
	Token   string   `xml:",chardata"`
}

type requestBody struct {
	Retrieve retrieveRequestMsg `xml:"http://exacttarget.com/wsdl/partnerAPI RetrieveRequestMsg"`
}

type retrieveRequestMsg struct {
	RetrieveRequest *RetrieveRequest `xml:"RetrieveRequest"`
}

// newRequestEnvelope wraps a Retrieve request with the token header.
func newRequestEnvelope(token string, req *RetrieveRequest) *requestEnvelope {
	return &requestEnvelope{
		XmlnsS:   envelopeNS,
		XmlnsXSI: xsiNS,
		Header:   requestHeader{FuelOAuth: fuelOAuth{Token: token}},
		Body:     requestBody{Retrieve: retrieveRequestMsg{RetrieveRequest: req}},
	}
}

// responseEnvelope decodes Retrieve responses and faults regardless of prefix.
type responseEnvelope struct {
	Body struct {
		Fault    *soapFault           `xml:"Fault"`
		Retrieve *retrieveResponseMsg `xml:"RetrieveResponseMsg"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type retrieveResponseMsg struct {
	OverallStatus string    `xml:"OverallStatus"`
	RequestID     string    `xml:"RequestID"`
	Results       []xmlNode `xml:"Results"`
}

// xmlNode is a generic element tree used to read dynamically-shaped results.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}
