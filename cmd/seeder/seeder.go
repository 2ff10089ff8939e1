// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var (
	donorsCount   int
	requestsCount int
	threads       int
	apiURL        string
	databaseURL   string
	seeder        = &cobra.Command{
		Use:   "seeder",
		Short: "seeder",
		Run: func(_ *cobra.Command, args []string) {
			if apiURL == "" && databaseURL == "" {
				log.Fatal("one of --api or --database is required")
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			g := NewGenerator(donorsCount, requestsCount, threads, apiURL, databaseURL)
			g.StartSeeding(ctx)
		},
	}
	initFlags = func() {
		seeder.Flags().IntVar(&donorsCount, "donors", 10000, "count of donors to generate")
		seeder.Flags().IntVar(&requestsCount, "requests", 1000, "count of blood requests to generate")
		seeder.Flags().IntVar(&threads, "threads", 100, "concurrent writers")
		seeder.Flags().StringVar(&apiURL, "api", "", "base url of a running relay, e.g. http://localhost:9890")
		seeder.Flags().StringVar(&databaseURL, "database", "", "sqlite database path to insert into directly, bypassing the api")
	}
)

func init() {
	initFlags()
}

func main() {
	if err := seeder.Execute(); err != nil {
		log.Panic(err)
	}
}
