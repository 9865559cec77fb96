package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func printUsageWithError(err error) {
	fmt.Printf("error: %s", err.Error())
	printUsage()
}

func printUsage() {
	name := "scoring-api"
	args := os.Args
	if len(args) > 0 {
		name = args[0]
	}
	fmt.Printf("\nUsage: %s [options]\n", name)
	flag.PrintDefaults()
}

func handleProgramError(err error) {
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
}

func handleCLIError(err error) {
	if err != nil {
		printUsageWithError(err)
		os.Exit(1)
	}
}

// readLabsFile parses a JSON file that maps challenge slugs to file trees
// of absolute paths and contents.
func readLabsFile(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the labs file '%s': %s", path, err.Error())
	}
	labs := make(map[string]map[string]string)
	err = json.Unmarshal(data, &labs)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse the labs file '%s': %s", path, err.Error())
	}
	return labs, nil
}
