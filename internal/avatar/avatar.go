// Package avatar builds fallback avatar URLs for users and channels that
// have no stored avatar. The URL shape matches what existing clients expect.
package avatar

import "net/url"

const baseURL = "https://ui-avatars.com/api/"

// URLFor returns a generated-avatar URL for the given display name.
func URLFor(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "random")
	return baseURL + "?" + q.Encode()
}

// OrDefault returns the stored avatar URL when present, otherwise a
// generated one for the display name.
func OrDefault(stored, name string) string {
	if stored != "" {
		return stored
	}
	return URLFor(name)
}
