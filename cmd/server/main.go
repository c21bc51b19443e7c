// kebiao 课表引擎服务
// 主程序入口

package main

import (
	"fmt"
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

	fmt.Printf("kebiao 课表引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	root := cli.NewRootCmd()
	root.SetArgs(append([]string{"serve"}, os.Args[1:]...))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
