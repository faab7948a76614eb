// Command lytix manages the prompts saved in Lytix from a project folder.
package main

import (
	"os"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/observability"
	"github.com/Lytix-Labs/lytix-go/prompts"
)

func main() {
	if err := newRootCmd(remoteFromEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

// remoteFromEnv builds the API client from LX_API_KEY and LX_BASE_URL.
func remoteFromEnv() (prompts.Remote, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return prompts.NewClient(cfg.Lytix,
		prompts.WithLogger(observability.Default().Logger("cli")))
}
