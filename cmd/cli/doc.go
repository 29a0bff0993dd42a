// Package cli assembles the monosplit command hierarchy, wiring configuration
// loading, structured logging, and the split commands into a Cobra root.
package cli
