// Package triage classifies free-text product and campaign descriptions into
// legal review buckets. It defines the Engine (pure, rubric-driven rule
// evaluation), the Service (IDs, metrics, legal-channel notification, batch
// fan-out) and the domain models.
package triage
