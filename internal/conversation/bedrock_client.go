package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockLLMClient answers chat turns through the Bedrock Converse API.
type BedrockLLMClient struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockLLMClient(api bedrockConverseAPI, modelID string) *BedrockLLMClient {
	if api == nil {
		panic("conversation: bedrock converse client cannot be nil")
	}
	return &BedrockLLMClient{api: api, modelID: strings.TrimSpace(modelID)}
}

func (c *BedrockLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := c.modelID
	if m := strings.TrimSpace(req.Model); m != "" {
		model = m
	}
	if model == "" {
		return LLMResponse{}, errors.New("conversation: bedrock model id is required")
	}
	system, messages, err := req.normalize()
	if err != nil {
		return LLMResponse{}, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(model),
		Messages:        bedrockMessages(messages),
		InferenceConfig: bedrockInference(req),
	}
	for _, block := range system {
		input.System = append(input.System, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: bedrock converse failed: %w", err)
	}
	text, err := bedrockText(out)
	if err != nil {
		return LLMResponse{}, err
	}

	resp := LLMResponse{Text: text, Model: model, StopReason: string(out.StopReason)}
	if out.Usage != nil {
		resp.Usage = TokenUsage{
			Prompt:     aws.ToInt32(out.Usage.InputTokens),
			Completion: aws.ToInt32(out.Usage.OutputTokens),
		}
	}
	return resp, nil
}

func bedrockMessages(messages []ChatMessage) []brtypes.Message {
	out := make([]brtypes.Message, 0, len(messages))
	for _, msg := range messages {
		role := brtypes.ConversationRoleUser
		if msg.Role == ChatRoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}
		out = append(out, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: msg.Content}},
		})
	}
	return out
}

// bedrockInference returns nil when the request leaves every knob at the
// model default.
func bedrockInference(req LLMRequest) *brtypes.InferenceConfiguration {
	if req.MaxTokens <= 0 && req.Temperature < 0 {
		return nil
	}
	cfg := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		cfg.MaxTokens = aws.Int32(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		cfg.Temperature = aws.Float32(req.Temperature)
	}
	return cfg
}

func bedrockText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("conversation: bedrock response is nil")
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("conversation: bedrock response did not include a message")
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("conversation: bedrock response had no text")
	}
	return text, nil
}
