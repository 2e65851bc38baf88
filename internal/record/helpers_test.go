package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/micromata/projectforge-sub013/internal/model"
	"github.com/micromata/projectforge-sub013/internal/schema"
)

const projectSchema = `
entity: Project: {
	historizable: true
	properties: {
		title:      {kind: "text"}
		budget:     {kind: "decimal"}
		startDate:  {kind: "date"}
		lastUpdate: {kind: "datetime", historyExempt: true}
		priority:   {kind: "int"}
		rating:     {kind: "float"}
		active:     {kind: "bool"}
		manager:    {kind: "reference", target: "Employee"}
		positions:  {kind: "collection", target: "Position", mappedBy: "project", softDelete: true, cascade: true}
		members:    {kind: "collection", target: "Employee"}
	}
}
entity: SubProject: {
	parent:       "Project"
	historizable: true
	properties: code: {kind: "text"}
}
entity: Employee: properties: name: {kind: "text"}
entity: Position: {
	historizable: true
	properties: {
		number:  {kind: "int"}
		text:    {kind: "text"}
		amount:  {kind: "decimal"}
		deleted: {kind: "bool"}
	}
}
entity: SpecialPosition: {
	parent:       "Position"
	historizable: true
	properties: note: {kind: "text"}
}
`

func testRegistry(t *testing.T) *model.Registry {
	t.Helper()
	result, errs := schema.LoadString(projectSchema)
	require.Empty(t, errs)
	require.Empty(t, schema.Validate(result.Types))
	reg, err := BuildRegistry(result.Types)
	require.NoError(t, err)
	return reg
}
