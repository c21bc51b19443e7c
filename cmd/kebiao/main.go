package main

import (
	"os"

	"github.com/paiban/kebiao/internal/cli"
	"github.com/paiban/kebiao/internal/server"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	server.Version = Version
	server.BuildTime = BuildTime
	server.GitCommit = GitCommit

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
