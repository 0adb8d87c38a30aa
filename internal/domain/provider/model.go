// Package provider contains the static model tables and provider descriptors
// used to pick a model backend.
package provider

import "slices"

// Kind identifies a model provider family.
type Kind string

const (
	KindBedrock Kind = "bedrock"
	KindOpenAI  Kind = "openai"
)

// String returns the provider name.
func (k Kind) String() string {
	return string(k)
}

// DisplayName returns a human-readable provider name.
func (k Kind) DisplayName() string {
	switch k {
	case KindBedrock:
		return "Bedrock"
	case KindOpenAI:
		return "OpenAI"
	default:
		return string(k)
	}
}

// Capability is something an adapter needs at construction time.
type Capability string

const (
	CapabilityCallback Capability = "streaming callback"
	CapabilityAPIKey   Capability = "API key"
)

// requiredCapabilities lists, per provider kind, what must be supplied before
// an adapter can be built.
var requiredCapabilities = map[Kind][]Capability{
	KindBedrock: {CapabilityCallback},
	KindOpenAI:  {CapabilityCallback, CapabilityAPIKey},
}

// RequiredCapabilities returns a copy of the capabilities a kind requires.
func RequiredCapabilities(k Kind) []Capability {
	return slices.Clone(requiredCapabilities[k])
}

// Descriptor describes one supported model.
type Descriptor struct {
	Kind     Kind
	Name     string // table key, e.g. GPT_4O
	ModelID  string // identifier sent to the provider API
	Required []Capability
}

// Requires reports whether the descriptor needs the capability.
func (d Descriptor) Requires(c Capability) bool {
	return slices.Contains(d.Required, c)
}

// bedrockModels maps model names to Bedrock model ids.
var bedrockModels = map[string]string{
	"CLAUDE_INSTANT_V1":     "anthropic.claude-instant-v1",
	"CLAUDE_V2":             "anthropic.claude-v2",
	"CLAUDE_V2_1":           "anthropic.claude-v2:1",
	"CLAUDE_3_HAIKU":        "anthropic.claude-3-haiku-20240307-v1:0",
	"CLAUDE_3_SONNET":       "anthropic.claude-3-sonnet-20240229-v1:0",
	"CLAUDE_3_5_SONNET":     "anthropic.claude-3-5-sonnet-20240620-v1:0",
	"CLAUDE_3_OPUS":         "anthropic.claude-3-opus-20240229-v1:0",
	"TITAN_TEXT_EXPRESS_V1": "amazon.titan-text-express-v1",
	"TITAN_TEXT_LITE_V1":    "amazon.titan-text-lite-v1",
	"LLAMA3_8B_INSTRUCT":    "meta.llama3-8b-instruct-v1:0",
	"LLAMA3_70B_INSTRUCT":   "meta.llama3-70b-instruct-v1:0",
	"MISTRAL_7B_INSTRUCT":   "mistral.mistral-7b-instruct-v0:2",
	"MIXTRAL_8X7B_INSTRUCT": "mistral.mixtral-8x7b-instruct-v0:1",
}

// openAIModels maps model names to OpenAI model ids.
var openAIModels = map[string]string{
	"GPT_3_5_TURBO": "gpt-3.5-turbo",
	"GPT_4":         "gpt-4",
	"GPT_4_TURBO":   "gpt-4-turbo",
	"GPT_4O":        "gpt-4o",
	"GPT_4O_MINI":   "gpt-4o-mini",
}

// Lookup finds the descriptor for a model name. Bedrock names are checked
// first; the two tables are disjoint.
func Lookup(name string) (Descriptor, bool) {
	if id, ok := bedrockModels[name]; ok {
		return newDescriptor(KindBedrock, name, id), true
	}
	if id, ok := openAIModels[name]; ok {
		return newDescriptor(KindOpenAI, name, id), true
	}
	return Descriptor{}, false
}

func newDescriptor(kind Kind, name, id string) Descriptor {
	return Descriptor{
		Kind:     kind,
		Name:     name,
		ModelID:  id,
		Required: RequiredCapabilities(kind),
	}
}

// Models returns every descriptor of a kind sorted by name.
func Models(kind Kind) []Descriptor {
	var table map[string]string
	switch kind {
	case KindBedrock:
		table = bedrockModels
	case KindOpenAI:
		table = openAIModels
	default:
		return nil
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, newDescriptor(kind, name, table[name]))
	}
	return out
}

// AllModels returns Bedrock then OpenAI descriptors.
func AllModels() []Descriptor {
	return append(Models(KindBedrock), Models(KindOpenAI)...)
}
