package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [search-id]",
	Short: "Query the server for search status",
	Long: `Queries a keysweep server. Without an argument it lists all searches;
with a search ID it shows that search in detail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listSearches(fmt.Sprintf("%s/api/v1/searches", serverURL))
	}
	searchID := args[0]
	return getSearchStatus(fmt.Sprintf("%s/api/v1/searches/%s", serverURL, searchID), searchID)
}

func listSearches(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var searches []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&searches); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(searches) == 0 {
		fmt.Println("No searches found")
		return nil
	}

	fmt.Printf("Found %d search(es):\n\n", len(searches))
	for _, s := range searches {
		fmt.Printf("Search ID: %s\n", s["id"])
		fmt.Printf("  State: %s\n", s["state"])
		if config, ok := s["config"].(map[string]interface{}); ok {
			fmt.Printf("  Target: %s\n", config["targetPath"])
		}
		if tested, ok := s["tested"].(float64); ok && tested > 0 {
			fmt.Printf("  Tested: %.0f\n", tested)
		}
		fmt.Println()
	}

	return nil
}

func getSearchStatus(url, searchID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("search not found: %s", searchID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Search: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	fmt.Println()

	if config, ok := status["config"].(map[string]interface{}); ok {
		fmt.Println("Configuration:")
		fmt.Printf("  Target: %s\n", config["targetPath"])
		fmt.Printf("  Alphabet: %s\n", config["alphabet"])
		fmt.Printf("  Lengths: %v-%v\n", config["minLength"], config["maxLength"])
		fmt.Printf("  Workers: %v\n", config["workers"])
		fmt.Printf("  Chunk size: %v\n", config["chunkSize"])
		fmt.Println()
	}

	fmt.Println("Progress:")
	if position, ok := status["position"].(map[string]interface{}); ok {
		fmt.Printf("  Position: length=%v, index=%v\n", position["length"], position["offset"])
	}
	tested, _ := status["tested"].(float64)
	fmt.Printf("  Tested: %.0f", tested)
	if total, ok := status["total"].(float64); ok && total > 0 {
		fmt.Printf(" of %.0f (%.1f%%)", total, tested/total*100)
	}
	fmt.Println()

	if elapsed, ok := status["elapsed"].(float64); ok {
		fmt.Printf("  Elapsed: %s\n", time.Duration(elapsed*float64(time.Second)).Round(time.Millisecond))
	}
	if rate, ok := status["rate"].(float64); ok && rate > 0 {
		fmt.Printf("  Throughput: %.0f candidates/sec\n", rate)
	}

	if secret, ok := status["secret"].(map[string]interface{}); ok {
		fmt.Println()
		fmt.Printf("Passphrase: %s\n", secret["candidate"])
		fmt.Printf("Decrypted output at: %s\n", secret["artifactPath"])
	}

	if errMsg, ok := status["error"].(string); ok && errMsg != "" {
		fmt.Printf("\nError: %s\n", errMsg)
	}

	return nil
}
