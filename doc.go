// Package backend provides the Corclo API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/engagement: Engagement log and transparency dashboard metrics
// - internal/affinity: Affinity scoring and the ping flow
// - internal/notifications: Notification fan-out and dedup
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, etc.)
// - internal/seed: Database seeding for development and tests

// See the individual package documentation for detailed API reference.
package backend
