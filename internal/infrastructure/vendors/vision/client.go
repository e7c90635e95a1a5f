// Package vision provides the external vision-analysis client.
// It sends a comic page image to Gemini and parses the returned panel
// segmentation, reading order, and extracted text.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/VoxPanel/voxpanel-go/internal/domain/entities/comic"
	"github.com/VoxPanel/voxpanel-go/internal/domain/errs"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/media"
	"github.com/VoxPanel/voxpanel-go/internal/infrastructure/observability/logging"
)

// Client calls the Gemini vision model for comic page analysis
type Client struct {
	apiKey    string
	model     string
	timeout   time.Duration
	processor *media.ImageProcessor
	logger    *logging.ChanneledLogger
}

// NewClient creates a vision analysis client
func NewClient(apiKey, model string, timeout time.Duration, processor *media.ImageProcessor, logger *logging.ChanneledLogger) *Client {
	return &Client{
		apiKey:    apiKey,
		model:     model,
		timeout:   timeout,
		processor: processor,
		logger:    logger,
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// pageResponse mirrors the JSON schema the model is prompted to produce.
type pageResponse struct {
	Panels      []comic.Panel `json:"panels"`
	PageSummary string        `json:"page_summary"`
	TotalPanels int           `json:"total_panels"`
}

// AnalyzePage analyzes a comic page image and returns its panels in
// reading order plus a page summary.
func (c *Client) AnalyzePage(ctx context.Context, imagePath string) ([]comic.Panel, string, error) {
	if !c.Configured() {
		return nil, "", errs.NewValidation("vision analysis is not configured: missing GEMINI_API_KEY")
	}

	start := time.Now()

	imageData, err := c.processor.VisionPNGBytes(imagePath)
	if err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, "", errs.NewVendorTransient("gemini", fmt.Errorf("failed to create client: %w", err))
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx,
		genai.Text(analysisPrompt),
		genai.ImageData("png", imageData),
	)
	if err != nil {
		c.logger.LogVendorCall("gemini", "analyze_page", false, time.Since(start), "error", err.Error())
		return nil, "", errs.NewVendorTransient("gemini", err)
	}

	text, err := candidateText(resp)
	if err != nil {
		c.logger.LogVendorCall("gemini", "analyze_page", false, time.Since(start), "error", err.Error())
		return nil, "", &errs.VendorError{Vendor: "gemini", Retryable: false, Err: err}
	}

	panels, summary := ParseAnalysis(text)
	c.logger.LogVendorCall("gemini", "analyze_page", true, time.Since(start), "panels", len(panels))

	return panels, summary, nil
}

// candidateText extracts the text of the first candidate from a Gemini response.
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

// ParseAnalysis extracts the JSON analysis embedded in a model reply.
// A reply the parser cannot make sense of degrades to a single-panel
// analysis asking the user to check image quality, rather than failing
// the whole page.
func ParseAnalysis(reply string) ([]comic.Panel, string) {
	startIdx := strings.Index(reply, "{")
	endIdx := strings.LastIndex(reply, "}")
	if startIdx == -1 || endIdx <= startIdx {
		return fallbackPanels("no JSON found in model reply"), "Page analysis incomplete due to parsing error"
	}

	var parsed pageResponse
	if err := json.Unmarshal([]byte(reply[startIdx:endIdx+1]), &parsed); err != nil {
		return fallbackPanels(fmt.Sprintf("JSON parsing failed: %v", err)), "Page analysis incomplete due to parsing error"
	}
	if len(parsed.Panels) == 0 {
		return fallbackPanels("model reply contained no panels"), "Page analysis incomplete due to parsing error"
	}

	sort.SliceStable(parsed.Panels, func(i, j int) bool {
		return parsed.Panels[i].ReadingOrder < parsed.Panels[j].ReadingOrder
	})

	for i := range parsed.Panels {
		parsed.Panels[i].PanelIndex = i
		parsed.Panels[i].IsFirst = i == 0
		parsed.Panels[i].IsLast = i == len(parsed.Panels)-1
	}

	return parsed.Panels, parsed.PageSummary
}

// fallbackPanels builds the single-panel degraded analysis.
func fallbackPanels(reason string) []comic.Panel {
	return []comic.Panel{
		{
			PanelID:      1,
			ReadingOrder: 1,
			PanelIndex:   0,
			IsFirst:      true,
			IsLast:       true,
			Bounds:       comic.Bounds{X: 0, Y: 0, Width: 100, Height: 100},
			TextElements: []comic.TextElement{
				{
					Type:          "narration",
					Text:          "Unable to parse comic text automatically. Please check the image quality.",
					Speaker:       "System",
					SpeakerGender: "unknown",
				},
			},
			Description: "Comic panel analysis failed - manual review needed (" + reason + ")",
		},
	}
}

const analysisPrompt = `Analyze this comic page and provide a detailed breakdown in JSON format. I need you to:

1. Identify all panels/frames in the comic page
2. Determine the correct reading order (typically left-to-right, top-to-bottom)
3. Extract all text from speech bubbles, thought bubbles, captions, and sound effects
4. Identify the approximate coordinates/bounds of each panel
5. Describe what's happening in each panel briefly
6. Visually analyze each character who is speaking and determine their gender based on visual appearance (facial features, hair style, clothing, body shape, etc.)
7. Match each text element to the visually identified character who is speaking

Respond with a JSON object in this exact format:
{
    "panels": [
        {
            "panel_id": 1,
            "reading_order": 1,
            "bounds": {"x": 0, "y": 0, "width": 100, "height": 100},
            "text_elements": [
                {
                    "type": "speech",
                    "text": "Hello there!",
                    "speaker": "Character name or description",
                    "speaker_gender": "male/female/unknown",
                    "visual_description": "Brief description of the character's visual appearance"
                }
            ],
            "description": "Brief description of what's happening in this panel"
        }
    ],
    "page_summary": "Overall summary of what happens on this page",
    "total_panels": 4
}

Notes:
- Bounds should be approximate percentages (0-100) of the page dimensions
- Text types can be: "speech", "thought", "narration", "sound_effect"
- Reading order should follow typical comic conventions
- Determine gender from the drawn character's visual appearance, not from text content
- For thought bubbles, identify the character thinking; for narration use "unknown" gender
- If you can't determine exact bounds, provide reasonable estimates
- Include ALL visible text, even small sound effects`
