package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrscrape/docbench/cmd/docbench/cmd"
	"github.com/mrscrape/docbench/internal/common"
)

func main() {
	common.ConfigureLogging(prometheus.DefaultRegisterer)
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
