// Package main 提供 ringnode 命令行入口
package main

import (
	ringnode "github.com/dep2p/go-ringnode"
	"github.com/dep2p/go-ringnode/internal/cli"
)

func main() {
	cli.Execute(ringnode.Version)
}
