package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

func TestBindFormFieldsLabelColonValue(t *testing.T) {
	blocks := []document.Block{
		{Type: document.BlockParagraph, TextNormalized: "Name:",
			Script: document.ScriptPrinted, Bbox: geometry.NewBbox(10, 100, 80, 120)},
		{Type: document.BlockParagraph, TextNormalized: "Jane Doe",
			Script: document.ScriptHandwritten, Bbox: geometry.NewBbox(100, 98, 220, 122)},
	}

	fields := BindFormFields(blocks)
	require.Len(t, fields, 1)
	assert.Equal(t, "Name", fields[0].Key)
	assert.Equal(t, "Jane Doe", fields[0].Value)
	assert.Equal(t, "layout", fields[0].Method)
	require.NotNil(t, fields[0].Bbox)
}

func TestBindFormFieldsBoxedRegionValue(t *testing.T) {
	blocks := []document.Block{
		{Type: document.BlockParagraph, TextNormalized: "Date of birth",
			Script: document.ScriptPrinted, Bbox: geometry.NewBbox(10, 100, 150, 120)},
		{Type: document.BlockParagraph, TextNormalized: "01 02 1990",
			FormBoxRegion: true, Engine: "box_ocr", Bbox: geometry.NewBbox(170, 100, 350, 124)},
	}

	fields := BindFormFields(blocks)
	require.Len(t, fields, 1)
	assert.Equal(t, "Date of birth", fields[0].Key)
	assert.Equal(t, "box_ocr", fields[0].Method)
}

func TestBindFormFieldsValueWithoutLabelUnbound(t *testing.T) {
	blocks := []document.Block{
		{Type: document.BlockParagraph, TextNormalized: "scribble",
			Script: document.ScriptHandwritten, Bbox: geometry.NewBbox(100, 100, 200, 124)},
	}
	assert.Empty(t, BindFormFields(blocks))
}

func TestBindFormFieldsValueLeftOfLabelIgnored(t *testing.T) {
	blocks := []document.Block{
		{Type: document.BlockParagraph, TextNormalized: "Name:",
			Script: document.ScriptPrinted, Bbox: geometry.NewBbox(300, 100, 370, 120)},
		{Type: document.BlockParagraph, TextNormalized: "Jane",
			Script: document.ScriptHandwritten, Bbox: geometry.NewBbox(10, 100, 100, 124)},
	}
	assert.Empty(t, BindFormFields(blocks))
}

func TestBindFormFieldsDifferentBandIgnored(t *testing.T) {
	blocks := []document.Block{
		{Type: document.BlockParagraph, TextNormalized: "Name:",
			Script: document.ScriptPrinted, Bbox: geometry.NewBbox(10, 100, 80, 120)},
		{Type: document.BlockParagraph, TextNormalized: "Jane",
			Script: document.ScriptHandwritten, Bbox: geometry.NewBbox(100, 300, 200, 324)},
	}
	assert.Empty(t, BindFormFields(blocks))
}

func TestBindFormFieldsHandwrittenBlockNeverLabel(t *testing.T) {
	blocks := []document.Block{
		{Type: document.BlockParagraph, TextNormalized: "Name:",
			Script: document.ScriptHandwritten, Bbox: geometry.NewBbox(10, 100, 80, 120)},
		{Type: document.BlockParagraph, TextNormalized: "Jane",
			Script: document.ScriptHandwritten, Bbox: geometry.NewBbox(100, 100, 200, 124)},
	}
	assert.Empty(t, BindFormFields(blocks))
}
