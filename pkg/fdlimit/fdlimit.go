// Package fdlimit raises the process's open file descriptor limit.
package fdlimit

// Recommended is the limit below which a node is likely to run out of
// descriptors under load.
const Recommended = 10000
