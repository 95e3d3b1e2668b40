package parser

import (
	"github.com/gnana997/twtheme/pkg/util"
)

// getPoolSize returns the number of parsers a grammar pool may hold.
//
// Config modules are small and usually parsed once per load, so the pool
// follows util.GetOptimalPoolSize only to bound concurrent loads (the tool
// server and the reload watcher can parse at the same time).
// A positive override wins.
func getPoolSize(override int) int {
	return util.GetOptimalPoolSizeWithOverride(override)
}
