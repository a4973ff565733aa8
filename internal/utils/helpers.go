package utils

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ReadURLsFromFile loads one URL per line from filepath, skipping blank
// lines and "#" comments.
func ReadURLsFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer file.Close()

	urls := make([]string, 0)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := ValidateURL(line); err != nil {
			Warnf("skipping invalid url (line %d): %s - %v", lineNum, line, err)
			continue
		}

		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("url file contains no valid urls")
	}

	Infof("loaded %d urls from file", len(urls))
	return urls, nil
}

// ValidateURL checks that rawURL is a well-formed http(s) URL with a host.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("url missing scheme (http/https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("url missing host")
	}

	return nil
}
