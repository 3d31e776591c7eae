package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			BotName:  "Eva",
			LogLevel: "info",
		},
		Corpus: CorpusConfig{
			Dir: "~/.evabot/corpus",
		},
		Engine: EngineConfig{
			FuzzyThreshold:   0.6,
			MentionTokens:    []string{"eva", "eva geises", "@evageisesbot"},
			GreetingWords:    defaultGreetingWords(),
			QuestionMarkers:  defaultQuestionMarkers(),
			PropertyKeywords: defaultPropertyKeywords(),
			DomainKeywords:   defaultDomainKeywords(),
			SeeAlsoCount:     2,
		},
		Engage: EngageConfig{
			Enabled:               true,
			DailyPostHour:         10,
			GreetingIntervalHours: 2,
			TickSeconds:           30,
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				Enabled:   false,
				ParseMode: "Markdown",
			},
			Discord: DiscordConfig{
				Enabled: false,
			},
			CLI: CLIConfig{
				Enabled: true,
			},
		},
		Store: StoreConfig{
			Enabled: true,
			DBPath:  "~/.evabot/evabot.db",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     9091,
			Endpoint: "/metrics",
		},
	}
}

func defaultGreetingWords() []string {
	return []string{
		"hi", "hello", "hey", "howdy", "greetings", "welcome",
		"good morning", "good afternoon", "good evening",
	}
}

func defaultQuestionMarkers() []string {
	return []string{"what", "where", "when", "why", "how", "who", "which"}
}

func defaultPropertyKeywords() []string {
	return []string{
		"property", "properties", "house", "apartment", "plot", "farm",
		"real estate", "listing", "rent", "buy", "invest", "erf",
	}
}

func defaultDomainKeywords() []string {
	return []string{
		"namibia", "windhoek", "swakopmund", "etosha", "sossusvlei",
		"namib", "kalahari", "kunene", "walvis bay", "skeleton coast",
		"fish river canyon", "safari", "wildlife", "desert", "dune",
		"lion", "elephant", "rhino", "cheetah", "giraffe", "zebra",
		"himba", "san", "culture", "travel", "visit", "tourism",
		"visa", "weather", "braai", "biltong",
	}
}
