package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClustersByID(t *testing.T) {
	clusters := Clusters{
		{ID: 1, Name: "Slow checkout"},
		{ID: 7, Name: "Flaky sync"},
	}

	c, ok := clusters.ByID(7)
	require.True(t, ok)
	assert.Equal(t, "Flaky sync", c.Name)

	_, ok = clusters.ByID(99)
	assert.False(t, ok)
}

func TestClustersValidate(t *testing.T) {
	assert.NoError(t, Clusters{{ID: 1}, {ID: 2}}.Validate())
	assert.NoError(t, Clusters{}.Validate())

	err := Clusters{{ID: 1}, {ID: 2}, {ID: 1}}.Validate()
	var dup *DuplicateIDError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, int64(1), dup.ID)
}

func TestClusterDecodeNullIdeas(t *testing.T) {
	var c Cluster
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"name":"x","generated_ideas":null}`), &c))
	assert.Nil(t, c.GeneratedIdeas)

	c.Normalize()
	assert.NotNil(t, c.GeneratedIdeas)
	assert.Len(t, c.GeneratedIdeas, 0)
}

func TestIdeaDecodesTechnicalComplexity(t *testing.T) {
	var idea Idea
	payload := `{"title":"Checkout Doctor","solution_type":"Plugin","technical_complexity":"Medium"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &idea))
	assert.Equal(t, "Plugin", idea.SolutionType)
	assert.Equal(t, "Medium", idea.TechnicalComplexity)
}
