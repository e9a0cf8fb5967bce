// Package api exposes the directory over HTTP.
//
// [Handler.Router] serves plain HTTP for local runs. [Handler.HandleAPIGateway]
// adapts API Gateway proxy events onto the same router, so both deployments
// share routing, decoding and error rendering.
//
// Errors are rendered as
//
//	{"error": "Conflict", "details": "organization name already exists"}
//
// with the status taken from [directory.Kind.HTTPStatus].
package api
