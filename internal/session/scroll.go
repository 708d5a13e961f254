package session

// DefaultScrollThreshold is how close to the document bottom, in pixels, the
// viewport must be before the next page is requested.
const DefaultScrollThreshold = 300

// Scroll is a viewport position report from a client.
type Scroll struct {
	Top            int `json:"top"`
	ViewportHeight int `json:"viewportHeight"`
	DocumentHeight int `json:"documentHeight"`
}

// NearBottom reports whether the viewport bottom is within threshold pixels
// of the document bottom.
func (s Scroll) NearBottom(threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultScrollThreshold
	}
	if s.DocumentHeight <= 0 {
		return false
	}
	return s.Top+s.ViewportHeight >= s.DocumentHeight-threshold
}
