package intel

import "stockintel/internal/config"

// ConfigCredentials adapts the loaded configuration to the
// CredentialProvider interface. Technical analysis needs no credential
// and always reports present.
type ConfigCredentials struct {
	creds config.Credentials
}

// NewConfigCredentials wraps the loaded credentials.
func NewConfigCredentials(creds config.Credentials) *ConfigCredentials {
	return &ConfigCredentials{creds: creds}
}

func (c *ConfigCredentials) HasCredential(source Source) bool {
	return source == SourceTechnical || c.GetCredential(source) != ""
}

func (c *ConfigCredentials) GetCredential(source Source) string {
	switch source {
	case SourceNews:
		return c.creds.Finnhub.APIKey
	case SourceSocial:
		return c.creds.Stocktwits.AccessToken
	case SourceOptions:
		return c.creds.Polygon.APIKey
	case SourceResearch:
		// Research prefers OpenAI, falling back to Anthropic
		if c.creds.OpenAI.APIKey != "" {
			return c.creds.OpenAI.APIKey
		}
		return c.creds.Anthropic.APIKey
	default:
		return ""
	}
}
