// Package scheduler runs the periodic release loop. Each tick executes
// the series pass and then the episode pass, so episodes whose parent
// released moments earlier can resolve against a fresh transfer entry.
package scheduler
