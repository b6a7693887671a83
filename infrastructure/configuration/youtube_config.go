package configuration

import (
	"fmt"
	"os"
)

// YouTubeConfig carries the credential material for the source client. Tokens
// are always taken from the environment; acquiring them (the OAuth consent
// flow) is outside this process.
type YouTubeConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AccessToken  string
	RefreshToken string
	APIKey       string
}

// GetYouTubeConfig merges the JSON config with environment variable fallbacks.
// It returns an error when neither an OAuth token pair nor an API key is present.
func GetYouTubeConfig() (*YouTubeConfig, error) {
	cfg := &YouTubeConfig{
		ClientID:     getEnv("YOUTUBE_CLIENT_ID", C.YouTube.ClientID),
		ClientSecret: getEnv("YOUTUBE_CLIENT_SECRET", C.YouTube.ClientSecret),
		RedirectURL:  getEnv("YOUTUBE_REDIRECT_URL", C.YouTube.RedirectURI),
		AccessToken:  os.Getenv("YOUTUBE_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
		APIKey:       getEnv("YOUTUBE_API_KEY", C.YouTube.APIKey),
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/auth/youtube/callback", C.App.Port)
	}
	if cfg.AccessToken == "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("no YouTube credentials configured (set YOUTUBE_ACCESS_TOKEN/YOUTUBE_REFRESH_TOKEN or YOUTUBE_API_KEY)")
	}
	return cfg, nil
}
