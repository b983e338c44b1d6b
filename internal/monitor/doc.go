// Package monitor samples host resources around a detection run: CPU load and
// memory through gopsutil, and Jetson board statistics by running tegrastats
// for a short window and parsing its last line.
//
// Sampling fails soft. A missing tool or unreadable counter is recorded in
// the ResourceSample and the run continues.
package monitor
