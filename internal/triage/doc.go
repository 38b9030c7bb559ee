// Package triage provides the business boundary for Sentinel's transaction
// triage pipeline. It defines the domain models, the Store interface
// (persistence), the feature codec, the classifier adapter, the history
// aggregator, the cycle state machine, and the report assembler.
package triage
