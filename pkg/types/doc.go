// Package types defines the values shared across the provisioning pipeline:
// the command/method/variant vocabulary, partition entries and flash plans.
package types
