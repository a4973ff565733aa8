// Package models holds the shared data types passed between the scraping
// pipeline's components: property records, tracker rows, session statistics,
// scraping modes, and the typed errors every component returns.
package models
