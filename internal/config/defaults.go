package config

func applyDefaults(c *Config) {
	if c.Workspace.Path == "" {
		c.Workspace.Path = "~/.pygpt"
	}

	if c.Agent.Model == "" {
		c.Agent.Model = "gpt-4o-mini"
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = 8192
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 20
	}
	if c.Agent.Temperature == 0 {
		c.Agent.Temperature = 0.7
	}
	if c.Agent.TimeoutSeconds == 0 {
		c.Agent.TimeoutSeconds = 60
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Plugins.Web.TimeoutSeconds == 0 {
		c.Plugins.Web.TimeoutSeconds = 30
	}
	if c.Plugins.Web.MaxResponseSize == 0 {
		c.Plugins.Web.MaxResponseSize = 2 * 1024 * 1024
	}
	if c.Plugins.Web.UserAgent == "" {
		c.Plugins.Web.UserAgent = "pygpt/0.1"
	}
	if c.Plugins.Web.SearchBaseURL == "" {
		c.Plugins.Web.SearchBaseURL = "https://html.duckduckgo.com/html/"
	}
	if c.Plugins.Web.MaxResults == 0 {
		c.Plugins.Web.MaxResults = 8
	}

	if len(c.Plugins.Code.Images) == 0 {
		c.Plugins.Code.Images = map[string]string{
			"python": "python:3.12-slim",
			"bash":   "alpine:3.20",
		}
	}
	if c.Plugins.Code.TimeoutSeconds == 0 {
		c.Plugins.Code.TimeoutSeconds = 60
	}
	if c.Plugins.Code.MaxOutputBytes == 0 {
		c.Plugins.Code.MaxOutputBytes = 256 * 1024
	}
	if c.Plugins.Code.RatePerMinute == 0 {
		c.Plugins.Code.RatePerMinute = 10
	}

	if c.Plugins.Voice.Voice == "" {
		c.Plugins.Voice.Voice = "alloy"
	}
	if c.Plugins.Voice.Language == "" {
		c.Plugins.Voice.Language = "en"
	}
	if c.Plugins.Voice.SpeechModel == "" {
		c.Plugins.Voice.SpeechModel = "tts-1"
	}
	if c.Plugins.Voice.TranscribeModel == "" {
		c.Plugins.Voice.TranscribeModel = "whisper-1"
	}

	if c.Plugins.Telegram.SendTimeoutSeconds == 0 {
		c.Plugins.Telegram.SendTimeoutSeconds = 30
	}

	if c.Cron.Timezone == "" {
		c.Cron.Timezone = "Local"
	}

	if c.Workers.PoolSize == 0 {
		c.Workers.PoolSize = 4
	}
	if c.Workers.QueueSize == 0 {
		c.Workers.QueueSize = 64
	}

	if c.MessageBus.Capacity == 0 {
		c.MessageBus.Capacity = 1000
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = "127.0.0.1:9090"
	}

	if c.Release.ManifestPath == "" {
		c.Release.ManifestPath = "release.yaml"
	}
	if c.Release.DistDir == "" {
		c.Release.DistDir = "dist"
	}
}
