package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
)

const sampleReply = "Here is the analysis you asked for:\n" + `{
  "panels": [
    {
      "panel_id": 2,
      "reading_order": 2,
      "bounds": {"x": 50, "y": 0, "width": 50, "height": 100},
      "text_elements": [
        {"type": "speech", "text": "Look out!", "speaker": "Rex", "speaker_gender": "male"}
      ],
      "description": "Rex shouts a warning"
    },
    {
      "panel_id": 1,
      "reading_order": 1,
      "bounds": {"x": 0, "y": 0, "width": 50, "height": 100},
      "text_elements": [
        {"type": "narration", "text": "Meanwhile, downtown...", "speaker": "Narrator", "speaker_gender": "unknown"}
      ],
      "description": "Establishing shot of the city"
    }
  ],
  "page_summary": "Rex warns someone downtown.",
  "total_panels": 2
}` + "\nLet me know if you need anything else."

func TestParseAnalysisExtractsEmbeddedJSON(t *testing.T) {
	panels, summary := ParseAnalysis(sampleReply)

	require.Len(t, panels, 2)
	assert.Equal(t, "Rex warns someone downtown.", summary)

	// Panels come back sorted by reading order with indexes assigned.
	assert.Equal(t, 1, panels[0].PanelID)
	assert.Equal(t, 0, panels[0].PanelIndex)
	assert.True(t, panels[0].IsFirst)
	assert.False(t, panels[0].IsLast)

	assert.Equal(t, 2, panels[1].PanelID)
	assert.Equal(t, 1, panels[1].PanelIndex)
	assert.False(t, panels[1].IsFirst)
	assert.True(t, panels[1].IsLast)

	require.Len(t, panels[1].TextElements, 1)
	assert.Equal(t, "speech", panels[1].TextElements[0].Type)
	assert.Equal(t, "Rex", panels[1].TextElements[0].Speaker)
}

func TestParseAnalysisDegradedResults(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no JSON at all", "I could not analyze this image."},
		{"malformed JSON", `{"panels": [{"panel_id": }`},
		{"empty panel list", `{"panels": [], "page_summary": "nothing"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panels, summary := ParseAnalysis(tt.reply)

			require.Len(t, panels, 1, "degraded reply must yield one fallback panel")
			assert.True(t, panels[0].IsFirst)
			assert.True(t, panels[0].IsLast)
			assert.Equal(t, comic.Bounds{X: 0, Y: 0, Width: 100, Height: 100}, panels[0].Bounds)
			require.Len(t, panels[0].TextElements, 1)
			assert.Equal(t, "narration", panels[0].TextElements[0].Type)
			assert.Contains(t, summary, "parsing error")
		})
	}
}
