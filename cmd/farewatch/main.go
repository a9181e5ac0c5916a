package main

import (
	"os"
)

// @title           Farewatch Flight API
// @version         1.0
// @description     Flight search, filtering and price tracking backed by the Amadeus flight-offers API.
// @BasePath        /
// @schemes         http
func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
