// Package probes provides health.Probe implementations for common
// dependencies: PostgreSQL, Redis, Kafka, MinIO, S3, local disks and HTTP
// endpoints.
//
// Each probe wraps the narrowest client interface it needs so it can be
// tested without the real dependency. Probes that measure a quantity report
// Healthy with a metric sample and leave classification to the configured
// thresholds; a probe reports Critical only when the dependency cannot be
// reached at all.
//
// Build turns a config.ProbesConfig into a probe list plus a close function
// for the clients it opened.
package probes
