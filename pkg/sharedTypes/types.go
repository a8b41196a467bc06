package sharedTypes

// ItemID is the stable identity of a logical feed entry, independent of the
// slot currently drawing it.
type ItemID string

// SlotID identifies one physical render slot. Slots are reused for different
// items over time.
type SlotID string

// FeedItem is one entry of the scrolling feed.
type FeedItem struct {
	Id     ItemID `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"` // opaque reference resolved by the byte source
}

// Feed is an ordered list of items, as listed from a bucket prefix or a local
// directory.
type Feed struct {
	Title  string     `json:"title"`
	Bucket string     `json:"bucket,omitempty"`
	Folder string     `json:"folder,omitempty"`
	Items  []FeedItem `json:"items"`
}
