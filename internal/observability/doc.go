// Package observability builds the service logger and the Prometheus
// collectors shared by the HTTP gate and the peer-service clients.
package observability
