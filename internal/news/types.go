package news

// Article is the merged article shape served to readers.
type Article struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	FullContent string `json:"fullContent"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
	SourceURL   string `json:"sourceUrl"`
	SourceName  string `json:"sourceName"`
}

// The UI exposes these topics as category chips; anything else is treated as
// a free-text query.
var uiCategories = map[string]bool{
	"technology": true,
	"business":   true,
	"sports":     true,
	"science":    true,
}
