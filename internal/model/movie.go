package model

type Movie struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Overview string   `json:"overview"`
	Genres   []string `json:"genres,omitempty"`
	Year     int      `json:"year,omitempty"`
	Ctime    int64    `json:"ctime"`
}

// SearchText is the text that gets embedded and handed to the model as
// grounding content. Title and overview together improve recall.
func (m *Movie) SearchText() string {
	if m.Overview == "" {
		return m.Title
	}
	return m.Title + "\n" + m.Overview
}
