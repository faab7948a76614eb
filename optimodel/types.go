package optimodel

import (
	"encoding/json"
	"errors"
)

// ModelType names a model served through Optimodel.
type ModelType string

const (
	Llama3_8bInstruct     ModelType = "llama_3_8b_instruct"
	Llama3_70bInstruct    ModelType = "llama_3_70b_instruct"
	Llama3_1_405b         ModelType = "llama_3_1_405b"
	Llama3_1_70b          ModelType = "llama_3_1_70b"
	Llama3_1_8b           ModelType = "llama_3_1_8b"
	Llama3_1_405bInstruct ModelType = "llama_3_1_405b_instruct"
	Llama3_1_70bInstruct  ModelType = "llama_3_1_70b_instruct"
	Llama3_1_8bInstruct   ModelType = "llama_3_1_8b_instruct"

	Claude3_5Sonnet20240620 ModelType = "claude_3_5_sonnet_20240620"
	Claude3_5Sonnet         ModelType = "claude_3_5_sonnet"
	Claude3Haiku            ModelType = "claude_3_haiku"

	Mistral7bInstruct   ModelType = "mistral_7b_instruct"
	Mixtral8x7bInstruct ModelType = "mixtral_8x7b_instruct"

	GPT4                ModelType = "gpt_4"
	GPT3_5Turbo         ModelType = "gpt_3_5_turbo"
	GPT4o               ModelType = "gpt_4o"
	GPT4Turbo           ModelType = "gpt_4_turbo"
	GPT3_5Turbo0125     ModelType = "gpt_3_5_turbo_0125"
	GPT4oMini           ModelType = "gpt_4o_mini"
	GPT4oMini2024_07_18 ModelType = "gpt_4o_mini_2024_07_18"
	GPT4o2024_08_06     ModelType = "gpt_4o_2024_08_06"
)

// Provider is an upstream model provider.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderTogetherAI Provider = "togetherai"
	ProviderGroq       Provider = "groq"
	ProviderAnthropic  Provider = "anthropic"
	ProviderBedrock    Provider = "bedrock"
)

// SpeedPriority trades latency against cost when Optimodel picks a provider.
type SpeedPriority string

const (
	SpeedLow  SpeedPriority = "low"
	SpeedHigh SpeedPriority = "high"
)

// ModelImageMessageSource is inline image data.
type ModelImageMessageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"mediaType"`
	Data      string `json:"data"`
}

// ModelMessageContentEntry is one part of a multi-part message.
type ModelMessageContentEntry struct {
	Type   string                   `json:"type"`
	Text   *string                  `json:"text,omitempty"`
	Source *ModelImageMessageSource `json:"source,omitempty"`
}

// ModelMessage is a chat message. Content is encoded as a plain string
// unless Entries is set.
type ModelMessage struct {
	Role    string
	Content string
	Entries []ModelMessageContentEntry
}

// TextMessage returns a single-part message.
func TextMessage(role, text string) ModelMessage {
	return ModelMessage{Role: role, Content: text}
}

func (m ModelMessage) MarshalJSON() ([]byte, error) {
	var content any = m.Content
	if len(m.Entries) > 0 {
		content = m.Entries
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}{m.Role, content})
}

func (m *ModelMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role
	m.Content, m.Entries = "", nil
	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}
	if raw.Content[0] == '[' {
		return json.Unmarshal(raw.Content, &m.Entries)
	}
	return json.Unmarshal(raw.Content, &m.Content)
}

// Guard names.
const (
	GuardLlamaPrompt       = "META_LLAMA_PROMPT_GUARD_86M"
	GuardLytixRegex        = "LYTIX_REGEX_GUARD"
	GuardMicrosoftPresidio = "MICROSOFT_PRESIDIO_GUARD"
)

// Guard is a check Optimodel runs on the prompt or the response.
// Build one with LlamaPromptGuard, RegexGuard or PresidioGuard.
type Guard struct {
	GuardName          string   `json:"guardName"`
	JailbreakThreshold *float64 `json:"jailbreakThreshold,omitempty"`
	InjectionThreshold *float64 `json:"injectionThreshold,omitempty"`
	Regex              string   `json:"regex,omitempty"`
	EntitiesToCheck    []string `json:"entitiesToCheck,omitempty"`
}

// LlamaPromptGuard flags jailbreak and injection attempts. A nil
// threshold uses the server default.
func LlamaPromptGuard(jailbreak, injection *float64) Guard {
	return Guard{GuardName: GuardLlamaPrompt, JailbreakThreshold: jailbreak, InjectionThreshold: injection}
}

// RegexGuard flags text matching regex.
func RegexGuard(regex string) Guard {
	return Guard{GuardName: GuardLytixRegex, Regex: regex}
}

// PresidioGuard flags the given PII entities.
func PresidioGuard(entities ...string) Guard {
	return Guard{GuardName: GuardMicrosoftPresidio, EntitiesToCheck: entities}
}

// Credentials lets a caller bring their own provider keys. Only the fields
// of the matching provider need to be set.
type Credentials struct {
	TogetherAPIKey  string `json:"togetherApiKey,omitempty"`
	AnthropicAPIKey string `json:"anthropicApiKey,omitempty"`
	GroqAPIKey      string `json:"groqApiKey,omitempty"`
	OpenAIKey       string `json:"openAiKey,omitempty"`
	AWSAccessKeyID  string `json:"awsAccessKeyId,omitempty"`
	AWSSecretKey    string `json:"awsSecretKey,omitempty"`
	AWSRegion       string `json:"awsRegion,omitempty"`
}

// QueryParams describes one model query.
type QueryParams struct {
	Model    ModelType
	Messages []ModelMessage

	// FallbackModels are tried in order after Model fails.
	FallbackModels []ModelType

	// Validator rejects a response, moving on to the next model.
	Validator func(response string) bool

	SpeedPriority SpeedPriority
	MaxGenLen     *int
	Temperature   *float64
	JSONMode      *bool
	Provider      Provider
	UserID        string
	SessionID     string
	Guards        []Guard
	WorkflowName  string
	Credentials   []Credentials
}

type queryRequest struct {
	ModelToUse    ModelType      `json:"modelToUse"`
	Messages      []ModelMessage `json:"messages"`
	SpeedPriority SpeedPriority  `json:"speedPriority,omitempty"`
	MaxGenLen     *int           `json:"maxGenLen,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	JSONMode      *bool          `json:"jsonMode,omitempty"`
	Provider      Provider       `json:"provider,omitempty"`
	UserID        string         `json:"userId,omitempty"`
	SessionID     string         `json:"sessionId,omitempty"`
	Guards        []Guard        `json:"guards,omitempty"`
	WorkflowName  string         `json:"workflowName,omitempty"`
	Credentials   []Credentials  `json:"credentials,omitempty"`
}

// QueryResponse is Optimodel's answer.
type QueryResponse struct {
	ModelResponse    string   `json:"modelResponse"`
	PromptTokens     int      `json:"promptTokens"`
	GenerationTokens int      `json:"generationTokens"`
	Cost             float64  `json:"cost"`
	Provider         Provider `json:"provider"`
	GuardErrors      []string `json:"guardErrors"`
}

var (
	// ErrNoModels is returned when QueryParams names no model.
	ErrNoModels = errors.New("optimodel: no models to try")

	// ErrValidation is returned when the Validator rejected a response.
	ErrValidation = errors.New("optimodel: validation failed")
)
