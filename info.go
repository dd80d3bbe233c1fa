package ncmdump

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Artist is one performer credit: display name plus the upstream
// catalogue id. On the wire it is a two-element array, not an object.
type Artist struct {
	Name string
	ID   uint64
}

func (a *Artist) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("artist entry has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &a.Name); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &a.ID)
}

// Info is the metadata record embedded in an NCM container. Album is an
// album title, not a URL, despite what the upstream client calls it.
// MvID and Alias are the only optional fields: MvID is nil when the
// container carries no mvId at all, which is distinct from an mvId of
// zero, and Alias is nil when absent.
type Info struct {
	Name     string
	ID       uint64
	Album    string
	Artists  []Artist
	Bitrate  uint64
	Duration uint64
	Format   string
	MvID     *uint64
	Alias    []string
}

// UnmarshalJSON maps the wire field names (musicName, musicId, mvId)
// onto the record and rejects documents missing any required field.
func (info *Info) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     *string  `json:"musicName"`
		ID       *uint64  `json:"musicId"`
		Album    *string  `json:"album"`
		Artists  []Artist `json:"artist"`
		Bitrate  *uint64  `json:"bitrate"`
		Duration *uint64  `json:"duration"`
		Format   *string  `json:"format"`
		MvID     *uint64  `json:"mvId"`
		Alias    []string `json:"alias"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == nil || raw.ID == nil || raw.Album == nil || raw.Artists == nil ||
		raw.Bitrate == nil || raw.Duration == nil || raw.Format == nil {
		return errors.New("missing required field")
	}
	info.Name = *raw.Name
	info.ID = *raw.ID
	info.Album = *raw.Album
	info.Artists = raw.Artists
	info.Bitrate = *raw.Bitrate
	info.Duration = *raw.Duration
	info.Format = *raw.Format
	info.MvID = raw.MvID
	info.Alias = raw.Alias
	return nil
}

// ArtistNames joins all artist names with "/", the separator music
// players expect in a single artist tag. Safe on a nil receiver.
func (info *Info) ArtistNames() string {
	if info == nil {
		return ""
	}
	names := make([]string, 0, len(info.Artists))
	for _, a := range info.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, "/")
}
