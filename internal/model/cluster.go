package model

import (
	"fmt"
)

// Cluster represents a group of related complaints identified by the
// aggregation service, together with its scores and generated ideas.
type Cluster struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	FrequencyScore       float64 `json:"frequency_score"`
	IntensityScore       float64 `json:"intensity_score"`
	EngagementScore      float64 `json:"engagement_score"`
	RecencyScore         float64 `json:"recency_score"`
	TotalValidationScore float64 `json:"total_validation_score"`
	GeneratedIdeas       []Idea  `json:"generated_ideas"`
}

func (c *Cluster) String() string {
	return fmt.Sprintf("ID=%d, Name=%s, Score=%.2f, Ideas=%d", c.ID, c.Name, c.TotalValidationScore, len(c.GeneratedIdeas))
}

// Normalize replaces a missing ideas list with an empty one.
func (c *Cluster) Normalize() {
	if c.GeneratedIdeas == nil {
		c.GeneratedIdeas = []Idea{}
	}
}

// Clusters represents a list of clusters in service order.
type Clusters []Cluster

// ByID returns the cluster with the given id.
func (cs Clusters) ByID(id int64) (*Cluster, bool) {
	for i := range cs {
		if cs[i].ID == id {
			return &cs[i], true
		}
	}
	return nil, false
}

// Validate checks that every id resolves to exactly one cluster.
func (cs Clusters) Validate() error {
	seen := make(map[int64]bool, len(cs))
	for _, c := range cs {
		if seen[c.ID] {
			return &DuplicateIDError{ID: c.ID}
		}
		seen[c.ID] = true
	}
	return nil
}

// Normalize normalizes every cluster in the list.
func (cs Clusters) Normalize() {
	for i := range cs {
		cs[i].Normalize()
	}
}

// DuplicateIDError is returned when two clusters share an id.
type DuplicateIDError struct {
	ID int64
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate cluster id %d", e.ID)
}
