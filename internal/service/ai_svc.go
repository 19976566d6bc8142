package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// AdCopy AI 返回的广告文案结构
type AdCopy struct {
	Headline     string   `json:"headline"`
	Body         string   `json:"body"`
	CallToAction string   `json:"call_to_action"`
	Hashtags     []string `json:"hashtags"`
}

// AIService Gemini 封装
type AIService struct {
	ApiKey       string
	ModelVersion string // 支持配置，如 "gemini-2.5-flash"
}

// NewAIService 支持传入模型版本
func NewAIService(apiKey string, modelVersion string) *AIService {
	if modelVersion == "" {
		modelVersion = "gemini-2.5-flash"
	}
	return &AIService{
		ApiKey:       apiKey,
		ModelVersion: modelVersion,
	}
}

// Enabled 是否配置了 API Key（未配置时搜索走 ILIKE 兜底）
func (s *AIService) Enabled() bool {
	return s.ApiKey != ""
}

func (s *AIService) newClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("Gemini 初始化失败: %v", err)
	}
	return client, nil
}

// ExpandSearchKeywords 把用户的自然语言搜索词扩展成一组检索关键词
func (s *AIService) ExpandSearchKeywords(ctx context.Context, query string) ([]string, error) {
	client, err := s.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	modelAI := client.GenerativeModel(s.ModelVersion)
	modelAI.ResponseMIMEType = "application/json"

	prompt := fmt.Sprintf(`
        You are a product search assistant for a dropshipping catalog.
        Expand this shopper query into search keywords: "%s".

        Requirements:
        1. 3 to 8 short keywords or phrases, lowercase.
        2. Include synonyms and closely related product terms.
        3. Do NOT include brand names.

        Output Schema (JSON):
        {
            "keywords": ["string", "string"]
        }
    `, query)

	resp, err := modelAI.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("AI 生成失败: %v", err)
	}

	rawJSON, err := firstTextPart(resp)
	if err != nil {
		return nil, err
	}

	var result struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(rawJSON), &result); err != nil {
		return nil, fmt.Errorf("JSON 解析失败: %v | 原始数据: %s", err, rawJSON)
	}
	if len(result.Keywords) == 0 {
		return nil, fmt.Errorf("AI 返回为空")
	}
	return result.Keywords, nil
}

// GenerateAdCopy 为商品生成广告文案
// extraInstruction: 允许用户传入额外的 Prompt 指令，例如 "Use emojis, be funny"
func (s *AIService) GenerateAdCopy(ctx context.Context, productTitle, productDesc, extraInstruction string) (*AdCopy, error) {
	client, err := s.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	modelAI := client.GenerativeModel(s.ModelVersion)
	modelAI.ResponseMIMEType = "application/json"

	basePrompt := fmt.Sprintf(`
        You are a social media ads copywriter for e-commerce.
        Write one ad creative for this product.

        Product title: "%s"
        Product description: "%s"

        Requirements:
        1. Headline: punchy, max 60 chars.
        2. Body: 2-3 sentences, sales-oriented.
        3. Call to action: short imperative.
        4. Hashtags: 5 relevant tags without the # symbol.
    `, productTitle, productDesc)

	if extraInstruction != "" {
		basePrompt += fmt.Sprintf("\nAdditional User Instructions: %s", extraInstruction)
	}

	basePrompt += `
        Output Schema (JSON):
        {
            "headline": "string",
            "body": "string",
            "call_to_action": "string",
            "hashtags": ["string", "string"]
        }
    `

	resp, err := modelAI.GenerateContent(ctx, genai.Text(basePrompt))
	if err != nil {
		return nil, fmt.Errorf("AI 生成失败: %v", err)
	}

	rawJSON, err := firstTextPart(resp)
	if err != nil {
		return nil, err
	}

	var result AdCopy
	if err := json.Unmarshal([]byte(rawJSON), &result); err != nil {
		return nil, fmt.Errorf("JSON 解析失败: %v | 原始数据: %s", err, rawJSON)
	}
	return &result, nil
}

// firstTextPart 取第一个文本 Part 并清洗 markdown 代码块符号
func firstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("AI 返回为空")
	}
	var rawJSON string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			rawJSON = string(txt)
			break
		}
	}
	rawJSON = strings.TrimPrefix(rawJSON, "```json")
	rawJSON = strings.TrimPrefix(rawJSON, "```")
	rawJSON = strings.TrimSuffix(rawJSON, "```")
	return rawJSON, nil
}
