package store

// Stats summarises the store for the stats command.
type Stats struct {
	TotalRaw       int     `json:"total_raw"`
	TotalProcessed int     `json:"total_processed"`
	Pending        int     `json:"pending"`
	ProcessingRate float64 `json:"processing_rate"`
	LastScraped    string  `json:"last_scraped,omitempty"`
	LastProcessed  string  `json:"last_processed,omitempty"`
}

// Stats reads both files and computes the summary.
func (s *Store) Stats() Stats {
	raw := s.AllRaw()
	processed := s.AllProcessed()

	st := Stats{
		TotalRaw:       len(raw),
		TotalProcessed: len(processed),
		Pending:        len(s.UnprocessedRaw()),
	}
	if st.TotalRaw > 0 {
		st.ProcessingRate = float64(st.TotalProcessed) / float64(st.TotalRaw) * 100
	}
	if len(raw) > 0 {
		st.LastScraped = raw[0].ScrapedAt
	}
	if len(processed) > 0 {
		st.LastProcessed = processed[0].ProcessedAt
	}
	return st
}
