// Package musictypes defines the audio and playlist extension tables used by
// the scanner and playlist import/export, the MIME types served for them, and
// the name normalization rules used for catalog entity identity.
//
// Supported audio formats: mp3, m4a, m4b, aac, flac, ogg, oga, opus, wav,
// wma, aiff, aif. Playlist files (m3u, m3u8) are recognized separately so
// they can be imported as manual playlists rather than songs.
package musictypes
