package api

// Error mapping is done inline in handlers.
// Auth errors mapped in auth package middleware.
// Configuration errors (unknown report/dataset, no datasets, no views) map to 4xx.
// Load and database failures map to 5xx.
