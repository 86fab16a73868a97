//go:build !windows
// +build !windows

package subprocess

// DevNull is the platform null device, a recognized file redirection target
// for discarding output or supplying immediate EOF.
const DevNull = "/dev/null"

// Environment variable names are case-sensitive on POSIX.
const envKeysFold = false
