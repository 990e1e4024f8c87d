package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "train":
		runTrain(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: clip-triage <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  analyze <clip|dump.json>   Classify one clip from its frame measurements")
	fmt.Println("  train <dump.json ...>      Add labelled clips to the prototype store")
	fmt.Println("  history                    Show recent classification runs")
	fmt.Println("  serve                      Start the HTTP + socket.io triage server")
}
