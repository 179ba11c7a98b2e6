// Package core defines the shared domain types for LeapLineage: pipeline
// jobs and their qualified table names, the lifecycle-notification contract
// a pipeline engine calls into, and the lineage events emitted downstream.
//
// The package has no dependencies beyond the standard library so that both
// pipeline engines (producers of notifications) and catalog integrations
// (consumers) can share it without pulling in either side's stack.
package core
