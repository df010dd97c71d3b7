// Package naming derives collision-free output file names from video
// titles. A Namer owns one output directory for the duration of a run and
// guarantees that concurrent claims never hand two downloads the same path.
package naming
