package gallery

import (
	"context"
	"fmt"
)

// foldersCacheKey is the single key under which the folder listing is cached.
const foldersCacheKey = "folders"

// Folder is one guest folder on the gallery server.
type Folder struct {
	Name       string `json:"name"`
	PhotoCount int    `json:"photo_count"`
}

// ListFolders returns the guest folders known to the gallery server.
//
// Listings are served from a 5-minute TTL cache: folder contents change
// rarely and the listing is purely informational, so staleness up to the
// threshold is acceptable.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	if folders, ok := c.folders.Get(foldersCacheKey); ok {
		return folders, nil
	}

	var folders []Folder
	if err := c.getJSON(ctx, "/folders", &folders); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	c.folders.Put(foldersCacheKey, folders)
	return folders, nil
}

// InvalidateFolders drops the cached folder listing, forcing the next
// ListFolders call to hit the server.
func (c *Client) InvalidateFolders() {
	c.folders.Invalidate(foldersCacheKey)
}
