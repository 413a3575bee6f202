// Package marketingcloud provides OAuth2 and connector support for the
// Marketing Cloud SOAP API.
//
// This package provides:
//   - Client-credentials token acquisition against the tenant auth endpoint
//   - Rate limiting for SOAP round trips
//   - Error handling for token endpoint responses
//   - Connector configuration and the default object type catalogue
//
// Every tenant has its own subdomain, which prefixes the auth and SOAP hosts.
//
// # OAuth2 Flow
//
// Marketing Cloud uses the client-credentials grant with a JSON body:
//   - Token URL: https://{subdomain}.auth.marketingcloudapis.com/v2/token
//
// Access tokens are valid for roughly 20 minutes. The SOAP authenticator does
// not track expiry; it refreshes when the service rejects the token.
//
// # Pagination
//
// Retrieve responses with OverallStatus "MoreDataAvailable" carry a RequestID.
// Sending that RequestID as ContinueRequest returns the next page. The
// RequestID is only valid for the immediately following call.
package marketingcloud
