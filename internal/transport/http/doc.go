// Package http contains the chi handlers for the dashboard API. Successful
// responses use the `{"status":"success","data":...}` envelope; failures
// flow through the RFC 7807 error handler and never write raw text.
package http
