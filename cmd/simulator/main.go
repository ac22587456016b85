package main

import (
	"context"
	"log"
	"os"
	"time"

	"journalite/simulator"
)

func main() {
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("SESSION_SECRET is required so simulated readers can mint session cookies")
	}

	target := os.Getenv("TARGET_URL")
	if target == "" {
		target = "http://localhost:3000"
	}

	config := simulator.SimConfig{
		NumReaders:       25,
		SimulationTime:   10 * time.Minute,
		ReadFrequency:    120.0,
		CommentFrequency: 20.0,
		ReplyFrequency:   10.0,
		LikeFrequency:    40.0,
		DropoffRate:      0.01,
		ReturnRate:       0.05,
		ZipfS:            1.07,
		TargetURL:        target,
		SessionSecret:    secret,
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Target URL: %s", config.TargetURL)
	log.Printf("- Number of readers: %d", config.NumReaders)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Read frequency: %.2f reads/reader/hour", config.ReadFrequency)
	log.Printf("- Comment frequency: %.2f comments/reader/hour", config.CommentFrequency)
	log.Printf("- Like frequency: %.2f toggles/reader/hour", config.LikeFrequency)
	log.Printf("- Dropoff rate: %.2f", config.DropoffRate)
	log.Printf("- Return rate: %.2f", config.ReturnRate)
	log.Printf("- Zipf parameter: %.2f", config.ZipfS)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total readers: %d", metrics.TotalReaders)
	log.Printf("- Active readers at end: %d", metrics.ActiveReaders)
	log.Printf("- Article reads: %d", metrics.TotalReads)
	log.Printf("- Paragraphs revealed: %d", metrics.ParagraphsSeen)
	log.Printf("- Comments: %d (Replies: %d)", metrics.TotalComments, metrics.TotalReplies)
	log.Printf("- Like toggles: %d", metrics.TotalLikes)
	log.Printf("- Average latency: %v", metrics.AverageLatency)
	log.Printf("- Requests/second: %.2f", metrics.RequestsPerSecond)
	log.Printf("- Errors: %d", metrics.ErrorCount)
}
