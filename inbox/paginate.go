package inbox

import (
	"fmt"
	"strconv"
)

// Paginate serves ids in pages of size for providers without server-side
// paging. Tokens are decimal offsets into ids.
func Paginate(ids []string, pageToken string, size int) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("invalid page size %d", size)
	}

	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 || n > len(ids) {
			return Page{}, fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = n
	}

	end := min(offset+size, len(ids))
	page := Page{IDs: append([]string{}, ids[offset:end]...)}
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}
