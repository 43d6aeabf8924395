package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:              "info",
			MaxConcurrentMessages: 5,
			RetentionMinutes:      30,
			CaptionMaxLength:      1024,
		},
		Messages: MessagesConfig{
			SystemMessage: "You are a professional translator. Translate the user's text to English, preserving tone and meaning. Reply with the translation only.",
			UserMessage:   "Translate the following text to English:\n{text}",
		},
		Files: FilesConfig{
			CommonPhrases: "common_phrases.txt",
		},
		Translators: TranslatorsConfig{
			Order:          []string{"openai", "google", "deepl", "duckduckgo"},
			ShowFailures:   true,
			TimeoutSeconds: 60,
			OpenAI: OpenAIConfig{
				Enabled: false,
			},
			Google: GoogleConfig{
				Enabled: true,
			},
			DeepL: DeepLConfig{
				Enabled: true,
			},
			DuckDuckGo: DuckDuckGoConfig{
				Enabled: false,
				Model:   "llama-3-70b",
			},
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			DBPath:        "ctrelay.db",
			RetentionDays: 30,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9090",
		},
	}
}
