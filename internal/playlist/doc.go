// Package playlist reads and writes M3U playlist files.
//
// Import parses both plain M3U and extended M3U (#EXTM3U with #EXTINF
// metadata lines); export always writes the extended form. Path resolution
// against the catalog happens in the HTTP layer; this package only deals
// with the file format.
package playlist
