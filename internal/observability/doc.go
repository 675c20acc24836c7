// Package observability owns conduit's logger construction and prometheus metrics.
package observability
