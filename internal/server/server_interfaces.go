// Package server provides HTTP server implementation for the Natours application.
// This file defines interfaces that abstract the server's functionality for testing.
package server

import (
	"context"

	"github.com/go-chi/chi/v5"
)

// ServerTestInterface defines methods required for server testing.
type ServerTestInterface interface {
	// SetupRoutes configures the HTTP routes for the server
	SetupRoutes()

	// GetRouter returns the configured router for request handling
	GetRouter() chi.Router

	// Start begins listening for HTTP requests
	Start() error

	// Shutdown gracefully stops the server
	Shutdown(ctx context.Context) error

	// SetupMaintenanceTasks initializes background maintenance operations
	SetupMaintenanceTasks()
}

// ServerDBHealthChecker defines the interface for database health checks.
type ServerDBHealthChecker interface {
	// HealthCheck verifies the database connection is working properly
	HealthCheck(ctx context.Context) error

	// Close terminates the database connection
	Close()
}

// tourReindexer rewrites the search index from the database.
type tourReindexer interface {
	Reindex(ctx context.Context) (int, error)
}

var (
	_ ServerTestInterface = (*Server)(nil)
)
