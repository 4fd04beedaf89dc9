package provider_test

import (
	"fmt"
	"log"

	"searchpipe/config"
	"searchpipe/provider"
)

// ExampleNewProvider demonstrates creating the backend selected by the valves.
func ExampleNewProvider() {
	valves := config.Defaults()
	valves.LLMProvider = config.ProviderOllama

	p, err := provider.NewProvider(provider.FromValves(valves))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Provider created: %T (%s)\n", p, p.GetModel())
	// Output: Provider created: *provider.OllamaProvider (llama3.1:latest)
}
