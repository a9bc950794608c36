package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"marketselect/internal/config"
)

// loadShortlist returns the slice of raw (un-normalized) city names stored in
// the shortlist file. If the file does not exist, an empty slice is returned
// without error.
func loadShortlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no shortlist yet
		}
		return nil, err
	}
	defer f.Close()

	var cities []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		city := strings.TrimSpace(scanner.Text())
		if city != "" {
			cities = append(cities, city)
		}
	}
	return cities, scanner.Err()
}

// saveShortlisted appends the given city to the shortlist file unless it
// already exists. Comparison uses the same normalization as lookups to
// prevent duplicates with differing whitespace/casing.
func saveShortlisted(path, city string) error {
	normNew := normalize(city)
	existing, err := loadShortlist(path)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if normalize(c) == normNew {
			// Already present – nothing to do.
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = fmt.Fprintln(f, city); err != nil {
		return err
	}
	return nil
}

// showShortlist loads the saved cities and presents them in an interactive
// list with their current rank and score. Selecting one renders its pro forma.
func showShortlist(cfg *config.Config, res *Results) {
	cities, err := loadShortlist(cfg.Paths.Shortlist)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load shortlist: %v\n", err)
		return
	}
	if len(cities) == 0 {
		fmt.Println("No cities shortlisted yet. Model a city to add it to your shortlist.")
		return
	}

	var lines []string
	for _, city := range cities {
		detail := "not in current ranking"
		if r, ok := res.findCity(city); ok {
			detail = fmt.Sprintf("rank %d | score %.4f", r.Rank, r.Composite)
		}
		line := fmt.Sprintf("%-24s | %s", city, detail)
		lines = append(lines, line)
		fmt.Println(line)
	}

	fmt.Println("Use ↑/↓ and Enter for the pro forma, Esc to exit.")
	interactiveSelect(cities, lines, func(city string) {
		modelAndRender(cfg, res, city, false)
	})
}
