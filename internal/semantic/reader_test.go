// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semantic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/discourse-metrics/pkg/types"
)

const sampleExport = `{
  "@context": {"dc": "http://purl.org/dc/elements/1.1/"},
  "@graph": [
    {"@id": "pages:schema1", "@type": "nodeSchema", "title": "Issue"},
    {"@id": "pages:rel1", "@type": "relationDef", "label": "informs", "domain": "RES", "range": "ISS", "inverseOf": "informedBy"},
    {"@id": "pages:ri1", "@type": "relationInstance", "source": "pages:res1", "destination": "pages:exp1", "predicate": "pages:rel1"},
    {
      "@id": "pages:exp1",
      "title": "@analysis/foo bar",
      "creator": "Ana Ruiz",
      "created": "2024-01-01T09:00:00Z",
      "modified": "2024-03-01T09:00:00Z",
      "content": "Claimed By:: [[Bo Chen]]\nIssue Created By:: [[Ana Ruiz]]\nStatus:: active"
    },
    {
      "@id": "pages:iss1",
      "title": "[[ISS]] - Measure drift",
      "creator": {"name": "Cy Park", "@id": "users:cy"},
      "created": "2024-02-01T00:00:00+02:00",
      "content": ""
    },
    {
      "@id": "pages:res1",
      "title": "[[RES]] - Drift is small",
      "creator": "Bo Chen",
      "created": "2024-02-10T00:00:00Z",
      "content": "Made by:: [Bo Chen](roam://bo)"
    },
    {"@id": "pages:clm1", "title": "[[CLM]] - Drift matters", "creator": "Ana Ruiz", "created": "not a date"},
    {"@id": "pages:misc", "title": "Daily notes", "created": "2024-05-01T00:00:00Z"}
  ]
}`

func TestRead(t *testing.T) {
	exp, err := Read(strings.NewReader(sampleExport))
	require.NoError(t, err)

	assert.Equal(t, 5, exp.TotalContentNodes)
	require.Len(t, exp.Experiments, 1)
	require.Len(t, exp.Issues, 1)
	require.Len(t, exp.Results, 1)
	assert.Len(t, exp.NodesByKind[types.KindClaim], 1)
	assert.Len(t, exp.NodesByKind[types.KindExperiment], 1)

	e := exp.Experiments[0]
	assert.Equal(t, "exp1", e.ID)
	assert.Equal(t, "Bo Chen", e.ClaimedBy)
	assert.Equal(t, "Ana Ruiz", e.IssueCreatedBy)
	assert.Equal(t, "Ana Ruiz", e.Creator)
	assert.Equal(t, "active", e.Status)
	assert.Empty(t, e.MadeBy)
	require.NotNil(t, e.Created)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), *e.Created)

	iss := exp.Issues[0]
	assert.Equal(t, "Cy Park", iss.Creator)
	require.NotNil(t, iss.Created)
	assert.Equal(t, time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC), *iss.Created)

	assert.Equal(t, "Bo Chen", exp.Results[0].MadeBy)
	assert.Nil(t, exp.NodesByKind[types.KindClaim][0].Created, "unparseable date degrades to nil")

	require.Len(t, exp.Relations, 1)
	assert.Equal(t, "informedBy", exp.Relations[0].InverseOf)
	require.Len(t, exp.RelationInstances, 1)
	assert.Equal(t, types.RelationInstance{ID: "ri1", Source: "res1", Destination: "exp1", Predicate: "rel1"}, exp.RelationInstances[0])

	require.NotNil(t, exp.Latest)
	assert.Equal(t, "2024-05-01", exp.Latest.Format("2006-01-02"))
}

func TestRead_TopLevelArray(t *testing.T) {
	exp, err := Read(strings.NewReader(`[{"@id":"pages:a","title":"@exp/x","created":"2024-01-01"}]`))
	require.NoError(t, err)
	assert.Len(t, exp.Experiments, 1)
}

func TestRead_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "{not json", `{"@graph": {"a": 1}}`} {
		_, err := Read(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrMalformedExport, "input %q", in)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrInputMissing)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o644))

	exp, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"@analysis/foo bar", "[[ISS]] - Measure drift"}, exp.Titles())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		title string
		want  types.NodeKind
	}{
		{"@analysis/foo", types.KindExperiment},
		{"@Imaging/Arp2/3 knockdown", types.KindExperiment},
		{"@/missing type", types.KindOther},
		{"@analysis2/digits not allowed", types.KindOther},
		{"[[ISS]] - thing", types.KindIssue},
		{"[[RES]] - thing", types.KindResult},
		{"[[HYP]] - thing", types.KindHypothesis},
		{"[[QUE]] - thing", types.KindQuestion},
		{"[[EVD]] - thing", types.KindEvidence},
		{"[[CON]] - thing", types.KindConclusion},
		{"[[ISS]] about a [[RES]]", types.KindIssue},
		{"plain page", types.KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.title))
		})
	}
}
