// Package mctest provides an in-process fake of the Marketing Cloud token
// and SOAP endpoints for tests.
package mctest

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Paths served by the fake.
const (
	TokenPath = "/v2/token"
	SOAPPath  = "/Service.asmx"
)

// Page is one Retrieve response worth of raw <Results> elements.
type Page []string

// Request is a Retrieve request as received by the fake.
type Request struct {
	Token           string
	ObjectType      string
	Properties      []string
	FilterType      string
	FilterProperty  string
	FilterOperator  string
	FilterValue     string
	ContinueRequest string
	SOAPAction      string
	Body            string
}

// Server fakes the token and SOAP endpoints.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	pages       map[string][]Page
	faults      map[string]string
	failPage    map[string]int
	cursors     map[string]int
	requests    []Request
	issued      int
	tokenStatus int
	expireNext  int
}

// NewServer starts a fake. Close it when done.
func NewServer() *Server {
	s := &Server{
		pages:    make(map[string][]Page),
		faults:   make(map[string]string),
		failPage: make(map[string]int),
		cursors:  make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, s.handleToken)
	mux.HandleFunc(SOAPPath, s.handleSOAP)
	s.Server = httptest.NewServer(mux)
	return s
}

// SetPages sets the pages returned for an object type.
func (s *Server) SetPages(objectType string, pages ...Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[objectType] = pages
}

// FailObjectType makes every Retrieve for objectType return a fault.
func (s *Server) FailObjectType(objectType, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[objectType] = message
}

// FailPage makes the given 1-based page of objectType return a fault.
func (s *Server) FailPage(objectType string, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPage[objectType] = page
}

// ExpireTokens makes the next n SOAP calls fail with a token expiry fault.
func (s *Server) ExpireTokens(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireNext = n
}

// RejectTokens makes the token endpoint answer with status.
func (s *Server) RejectTokens(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenStatus = status
}

// TokensIssued returns the number of tokens handed out.
func (s *Server) TokensIssued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// Requests returns the Retrieve requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsFor returns the Retrieve requests for one object type.
func (s *Server) RequestsFor(objectType string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.ObjectType == objectType {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		GrantType    string `json:"grant_type"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GrantType != "client_credentials" {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	status := s.tokenStatus
	if status == 0 {
		s.issued++
	}
	n := s.issued
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, `{"error":"invalid_client"}`, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // test server
	json.NewEncoder(w).Encode(map[string]any{
		"access_token":      fmt.Sprintf("token-%d", n),
		"token_type":        "Bearer",
		"expires_in":        1080,
		"soap_instance_url": s.URL + "/",
		"rest_instance_url": s.URL + "/",
	})
}

// retrieveEnvelope reads the parts of a Retrieve request the fake needs.
type retrieveEnvelope struct {
	Header struct {
		FuelOAuth string `xml:"fueloauth"`
	} `xml:"Header"`
	Body struct {
		Msg struct {
			Request struct {
				ObjectType      string   `xml:"ObjectType"`
				Properties      []string `xml:"Properties"`
				ContinueRequest string   `xml:"ContinueRequest"`
				Filter          *struct {
					Type     string `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr"`
					Property string `xml:"Property"`
					Operator string `xml:"SimpleOperator"`
					Value    string `xml:"DateValue"`
				} `xml:"Filter"`
			} `xml:"RetrieveRequest"`
		} `xml:"RetrieveRequestMsg"`
	} `xml:"Body"`
}

func (s *Server) handleSOAP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var env retrieveEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		writeFault(w, "soap:Client", "malformed envelope: "+err.Error())
		return
	}

	req := env.Body.Msg.Request
	rec := Request{
		Token:           strings.TrimSpace(env.Header.FuelOAuth),
		ObjectType:      req.ObjectType,
		Properties:      req.Properties,
		ContinueRequest: req.ContinueRequest,
		SOAPAction:      r.Header.Get("SOAPAction"),
		Body:            string(raw),
	}
	if f := req.Filter; f != nil {
		rec.FilterType = f.Type
		rec.FilterProperty = f.Property
		rec.FilterOperator = f.Operator
		rec.FilterValue = f.Value
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)

	if s.expireNext > 0 {
		s.expireNext--
		s.mu.Unlock()
		writeFault(w, "soap:Client", "Token Expired")
		return
	}
	if msg, ok := s.faults[req.ObjectType]; ok {
		s.mu.Unlock()
		writeFault(w, "soap:Server", msg)
		return
	}

	requestID := "req-" + req.ObjectType
	index := 0
	if req.ContinueRequest != "" {
		index = s.cursors[req.ContinueRequest]
	}
	if s.failPage[req.ObjectType] == index+1 {
		s.mu.Unlock()
		writeFault(w, "soap:Server", fmt.Sprintf("page %d unavailable", index+1))
		return
	}

	pages := s.pages[req.ObjectType]
	var page Page
	if index < len(pages) {
		page = pages[index]
	}
	more := index+1 < len(pages)
	s.cursors[requestID] = index + 1
	s.mu.Unlock()

	status := "OK"
	if more {
		status = "MoreDataAvailable"
	}
	writeRetrieveResponse(w, status, requestID, page)
}

func writeFault(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>%s</faultcode>
      <faultstring>%s</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`, code, xmlEscape(message))
}

func writeRetrieveResponse(w http.ResponseWriter, status, requestID string, page Page) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <soap:Body>
    <RetrieveResponseMsg xmlns="http://exacttarget.com/wsdl/partnerAPI">
      <OverallStatus>%s</OverallStatus>
      <RequestID>%s</RequestID>
      %s
    </RetrieveResponseMsg>
  </soap:Body>
</soap:Envelope>`, status, requestID, strings.Join(page, "\n      "))
}

func xmlEscape(s string) string {
	var b strings.Builder
	//nolint:errcheck // strings.Builder never fails
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Result builds a <Results> element of the given xsi:type from ordered
// name/value pairs. Values are inserted verbatim, so nested elements may
// be passed as XML.
func Result(xsiType string, fields ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<Results xsi:type="%s">`, xsiType)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, "<%s>%s</%s>", fields[i], fields[i+1], fields[i])
	}
	b.WriteString("</Results>")
	return b.String()
}
