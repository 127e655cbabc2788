// Package testutil provides fixtures for testing fwprov components.
//
// TestProject lays out a firmware project on disk the way the pipeline
// expects to find it: projectConfig.csv, partition tables and sdkconfig
// defaults per variant, and build artifacts under build/. Helpers only
// depend on the standard library and testify so every package can use
// them from its own tests.
package testutil
