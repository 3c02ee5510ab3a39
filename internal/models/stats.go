package models

type SummaryStat struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalDurationMs int64   `json:"total_duration_ms"`
	TotalChars      int     `json:"total_chars"`
	AvgGrossWPM     float64 `json:"avg_gross_wpm"`
	AvgNetWPM       float64 `json:"avg_net_wpm"`
	BestNetWPM      float64 `json:"best_net_wpm"`
	AvgAccuracy     float64 `json:"avg_accuracy"`
}

type LanguageStat struct {
	Language        string  `json:"language"`
	TotalSessions   int     `json:"total_sessions"`
	AvgNetWPM       float64 `json:"avg_net_wpm"`
	BestNetWPM      float64 `json:"best_net_wpm"`
	AvgAccuracy     float64 `json:"avg_accuracy"`
	TotalDurationMs int64   `json:"total_duration_ms"`
}

type DailyStat struct {
	Day           string  `json:"day"`
	TotalSessions int     `json:"total_sessions"`
	AvgNetWPM     float64 `json:"avg_net_wpm"`
	AvgAccuracy   float64 `json:"avg_accuracy"`
	TotalChars    int     `json:"total_chars"`
}
