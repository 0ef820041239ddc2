package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Allergen Mapper Model Prompts ---
const AllergenMapperSystemPrompt = "You are a food allergen classifier. Your task is to map raw allergen text taken from food product labels onto a fixed list of standard allergen categories. Only ever answer with categories from the provided list."

// AllergenBatchPrompt is rendered with the category list and a JSON array of raw texts.
const AllergenBatchPrompt = `Map these RAW ALLERGEN texts to the 9 standard categories:
[%s].

Rules:
1. Output a JSON list of strings.
2. Maintain exact order. The output list must have exactly %d elements.
3. If an input is the empty string "", return the empty string "".
4. If an input is "no allergens", return "".
5. When an input matches several categories, join them with ", ".
6. Mapping examples: "cashew" -> "tree nut", "shrimp" -> "shellfish", "whey powder" -> "milk".

Input:
%s`

// AllergenSinglePrompt is rendered with the category list and one raw text.
const AllergenSinglePrompt = `Map the following RAW ALLERGEN text to the standard categories [%s].
Answer with the matching categories separated by ", " and nothing else.
If nothing matches, answer with an empty line.

Text: %s`

// ModelProbePrompt is the trivial prompt used to check that a model answers at all.
const ModelProbePrompt = "test"

// VertexClient hands out pre-configured generative models for the mapper.
type VertexClient struct {
	baseClient *genai.Client
}

// NewVertexClient creates a new Vertex AI client.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &VertexClient{baseClient: baseClient}, nil
}

// BatchMapperModel returns a model that answers batch prompts with a JSON array.
func (c *VertexClient) BatchMapperModel(name string) *genai.GenerativeModel {
	model := c.mapperModel(name)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	return model
}

// SingleMapperModel returns a model that answers one phrase in plain text.
func (c *VertexClient) SingleMapperModel(name string) *genai.GenerativeModel {
	model := c.mapperModel(name)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.0),
		MaxOutputTokens: genai.Ptr[int32](64),
	}
	return model
}

func (c *VertexClient) mapperModel(name string) *genai.GenerativeModel {
	model := c.baseClient.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AllergenMapperSystemPrompt)},
	}
	// Ingredient lists trip the default filters often enough to lose whole batches.
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}
	return model
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
