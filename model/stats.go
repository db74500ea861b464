package model

// ViewCounts holds the badge numbers shown next to every system view.
type ViewCounts struct {
	Inbox     int            `json:"inbox"`
	Favorites int            `json:"favorites"`
	Archive   int            `json:"archive"`
	Trash     int            `json:"trash"`
	Folders   map[string]int `json:"folders"`
}
