package musictypes

import "testing"

func TestGetMimeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".mp3", "audio/mpeg"},
		{".flac", "audio/flac"},
		{".m4a", "audio/mp4"},
		{".m3u", "audio/x-mpegurl"},
		{".xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := GetMimeType(tt.ext); got != tt.want {
			t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestIsAudioFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/Song.MP3", true},
		{"/music/track.flac", true},
		{"/music/cover.jpg", false},
		{"/music/noext", false},
	}

	for _, tt := range tests {
		if got := IsAudioFile(tt.path); got != tt.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsPlaylistFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"mix.m3u", true},
		{"/playlists/Mix.M3U8", true},
		{"/music/song.mp3", false},
		{"notes.txt", false},
	}

	for _, tt := range tests {
		if got := IsPlaylistFile(tt.path); got != tt.want {
			t.Errorf("IsPlaylistFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseExtensionList(t *testing.T) {
	t.Parallel()

	t.Run("custom list", func(t *testing.T) {
		t.Parallel()
		got := ParseExtensionList("mp3, FLAC,.ogg")
		want := map[string]bool{".mp3": true, ".flac": true, ".ogg": true}
		if len(got) != len(want) {
			t.Fatalf("got %d extensions, want %d: %v", len(got), len(want), got)
		}
		for ext := range want {
			if !got[ext] {
				t.Errorf("missing extension %q", ext)
			}
		}
	})

	t.Run("empty input falls back to defaults", func(t *testing.T) {
		t.Parallel()
		got := ParseExtensionList("")
		if len(got) != len(AudioExtensions) {
			t.Fatalf("got %d extensions, want %d", len(got), len(AudioExtensions))
		}
		if !got[".mp3"] || !got[".flac"] {
			t.Error("default list missing expected extensions")
		}
	})

	t.Run("returned map is a copy", func(t *testing.T) {
		t.Parallel()
		got := ParseExtensionList("")
		got[".fake"] = true
		if AudioExtensions[".fake"] {
			t.Error("mutation leaked into AudioExtensions")
		}
	})
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"The Beatles", "the beatles"},
		{"  The   Beatles  ", "the beatles"},
		{"THE BEATLES", "the beatles"},
		{"", ""},
		{"   ", ""},
		{"AC/DC", "ac/dc"},
		{"Tab\there", "tab here"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/music/07 - Karma Police.mp3", "Karma Police"},
		{"/music/07. Karma Police.mp3", "Karma Police"},
		{"/music/Karma Police.mp3", "Karma Police"},
		{"/music/1999.mp3", "1999"},
		{"/music/02_Track.flac", "Track"},
	}

	for _, tt := range tests {
		if got := TitleFromFilename(tt.path); got != tt.want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
