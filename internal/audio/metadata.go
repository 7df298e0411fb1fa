package audio

import (
	"bytes"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata holds song information.
type Metadata struct {
	Title  string
	Artist string
}

// ReadMetadata reads ID3v2 tags from the start of data. Files without a
// tag return an empty Metadata.
func ReadMetadata(data []byte) Metadata {
	if !bytes.HasPrefix(data, []byte("ID3")) {
		return Metadata{}
	}
	tag, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{
		Parse:       true,
		ParseFrames: []string{"Title", "Artist"},
	})
	if err != nil {
		return Metadata{}
	}
	defer tag.Close()

	return Metadata{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
	}
}
