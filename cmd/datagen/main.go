package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/creditbridge/backend/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		working     = flag.Int("working", cfg.NumWorking, "number of working profiles to generate")
		students    = flag.Int("students", cfg.NumStudents, "number of student profiles to generate")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output      = flag.String("output", "data/profiles.json", "file to write the profile records to")
		writeStdout = flag.Bool("stdout", false, "write records to stdout instead of a file")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, err := generator.New(generator.Config{
		NumWorking:  *working,
		NumStudents: *students,
		Seed:        *seed,
	}).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.WriteRecords(os.Stdout, records); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write profiles to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteFile(*output, records); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write profiles: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d profiles into %s\n", len(records), *output)
}
