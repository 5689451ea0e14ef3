// Package config provides configuration structures and utilities for fircount.
// It defines the crawl target, the region and year ranges, the worker pool
// size, the retry policy and the ASP.NET form layout of the target page.
//
// Defaults reproduce the SCRB Bihar FIR listing. A YAML file (.fircount)
// can override any of them, and CLI flags override the file.
package config
