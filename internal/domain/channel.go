package domain

// Channel describes one live channel for the HTTP API.
type Channel struct {
	Name        string `json:"name"`
	ViewerCount int    `json:"viewer_count"`
	CachedPics  int    `json:"cached_pics,omitempty"`
}
