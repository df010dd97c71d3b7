// Package cookies resolves the authentication material a run uses to access
// restricted content.
//
// Candidates are probed in a fixed order: well-known cookie file locations
// first, then configured browser cookie stores. The first usable candidate
// wins. Resolution happens once per run; when nothing is usable the run
// proceeds unauthenticated with a sentinel jar rather than failing, since
// missing credentials only degrade access to private content.
package cookies
