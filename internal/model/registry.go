package model

import "strings"

// ProviderSpec is the metadata record for one LLM provider.
type ProviderSpec struct {
	// Name is the config field name, e.g. "anthropic".
	Name string
	// Keywords are model-name keywords for matching (lowercase).
	Keywords []string
	// DisplayName is shown in `tangent status`.
	DisplayName string
	// DefaultAPIBase is the fallback base URL when none is configured.
	DefaultAPIBase string
	// IsGateway marks providers that route any model (OpenRouter, local).
	IsGateway bool
	// DetectByKeyPrefix identifies a gateway by its API-key prefix.
	DetectByKeyPrefix string
	// DetectByBaseKeyword identifies a gateway by a substring of api_base.
	DetectByBaseKeyword string
	// StripModelPrefix strips "provider/" before using the model name.
	StripModelPrefix bool
	// IsAnthropic selects the Anthropic Messages API wire format.
	IsAnthropic bool
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// providers is the registry. Order = match priority.
var providers = []ProviderSpec{
	{
		Name:                "openrouter",
		Keywords:            []string{"openrouter"},
		DisplayName:         "OpenRouter",
		IsGateway:           true,
		DetectByKeyPrefix:   "sk-or-",
		DetectByBaseKeyword: "openrouter",
		DefaultAPIBase:      "https://openrouter.ai/api/v1",
	},
	{
		Name:                "vllm",
		Keywords:            []string{"vllm", "hosted_vllm"},
		DisplayName:         "vLLM",
		IsGateway:           true,
		DetectByBaseKeyword: "localhost",
		StripModelPrefix:    true,
	},
	{
		Name:           "anthropic",
		Keywords:       []string{"anthropic", "claude"},
		DisplayName:    "Anthropic",
		DefaultAPIBase: "https://api.anthropic.com/v1",
		IsAnthropic:    true,
	},
	{
		Name:           "gemini",
		Keywords:       []string{"gemini"},
		DisplayName:    "Gemini",
		DefaultAPIBase: "https://generativelanguage.googleapis.com/v1beta/openai",
	},
	{
		Name:           "deepseek",
		Keywords:       []string{"deepseek"},
		DisplayName:    "DeepSeek",
		DefaultAPIBase: "https://api.deepseek.com/v1",
	},
	{
		Name:           "openai",
		Keywords:       []string{"openai", "gpt"},
		DisplayName:    "OpenAI",
		DefaultAPIBase: "https://api.openai.com/v1",
	},
}

// Specs returns the registry in match-priority order.
func Specs() []ProviderSpec {
	return providers
}

// FindByName returns the spec whose Name matches (case-insensitive), or nil.
func FindByName(name string) *ProviderSpec {
	n := strings.ToLower(strings.TrimSpace(name))
	for i := range providers {
		if providers[i].Name == n {
			return &providers[i]
		}
	}
	return nil
}

// FindByModel returns the first spec with a keyword contained in model, or nil.
func FindByModel(model string) *ProviderSpec {
	m := strings.ToLower(model)
	for i := range providers {
		for _, kw := range providers[i].Keywords {
			if strings.Contains(m, kw) {
				return &providers[i]
			}
		}
	}
	return nil
}

// FindGateway identifies a gateway provider from explicit name, API-key
// prefix, or API-base keyword. Returns nil when the target is a standard
// provider.
func FindGateway(name, apiKey, apiBase string) *ProviderSpec {
	base := strings.ToLower(apiBase)
	for i := range providers {
		s := &providers[i]
		if !s.IsGateway {
			continue
		}
		if strings.EqualFold(name, s.Name) {
			return s
		}
		if s.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, s.DetectByKeyPrefix) {
			return s
		}
		if s.DetectByBaseKeyword != "" && base != "" && strings.Contains(base, s.DetectByBaseKeyword) {
			return s
		}
	}
	return nil
}

// resolveModel strips a known "provider/" routing prefix so the API receives
// the bare model name it expects. Gateways keep the sub-prefix because they
// need it for routing, unless the spec says to strip everything.
func resolveModel(model string, gateway, spec *ProviderSpec) string {
	if gateway != nil {
		if gateway.StripModelPrefix {
			if i := strings.LastIndex(model, "/"); i >= 0 {
				return model[i+1:]
			}
		}
		return model
	}
	if spec != nil {
		full := spec.Name + "/"
		if strings.HasPrefix(strings.ToLower(model), full) {
			return model[len(full):]
		}
	}
	return model
}
