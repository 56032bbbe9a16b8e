// Command slate is the CLI for inspecting and controlling the release
// pipeline: catalog views, daemon lifecycle, one-shot release passes,
// and configuration utilities.
package main
