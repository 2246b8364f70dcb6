package model

// Idea represents a generated solution candidate for a cluster.
type Idea struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	SolutionType         string `json:"solution_type"` // SaaS, Plugin, App, ...
	MonetizationStrategy string `json:"monetization_strategy"`
	TechnicalComplexity  string `json:"technical_complexity"`
	MarketSizeEstimate   string `json:"market_size_estimate"`
}
