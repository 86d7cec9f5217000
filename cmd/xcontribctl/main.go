// xcontribctl 查看内置集成的兼容性与生效配置。
//
// 用法:
//
//	xcontribctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   集成配置文件（YAML/JSON，integrations 段）
//	--log-level    日志级别 (默认: warn)
//
// 命令:
//
//	list                  列出已登记的集成
//	check <name>          检查集成能否启用，不兼容时输出原因
//	resolve <name> <key>  输出查找键 key 的生效配置（每行 key=value）
//	watch [--for 时长]    监视 --config 指定的文件并持续应用，退出前输出状态
//
// 退出码:
//
//	0: 成功（check 命令: 集成兼容）
//	1: 执行失败（check 命令: 集成不兼容）
//	2: 参数错误（缺少参数、未知命令等）
//
// 示例:
//
//	xcontribctl list
//	xcontribctl check http
//	xcontribctl -c xcontrib.yaml resolve http api.example.com
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	_ "github.com/omeyang/xcontrib/pkg/contrib/xhttp"
	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	_ "github.com/omeyang/xcontrib/pkg/contrib/xtemplate"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr, xintegration.Default())
	stop()
	os.Exit(code)
}

// createApp 创建 CLI 应用。
func createApp(reg *xintegration.Registry, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xcontribctl",
		Usage:     "查看集成的兼容性与生效配置",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "集成配置文件",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "warn",
			},
		},
		Before:   setupLogger(stderr),
		Commands: createCommands(reg),
		// 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

// run 执行命令并返回退出码。
func run(ctx context.Context, args []string, stdout, stderr io.Writer, reg *xintegration.Registry) int {
	app := createApp(reg, stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// exitError 命令已完成输出，只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 命令参数错误。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// isCLIUsageError 识别 urfave/cli 产生的参数错误（未知 flag、未知命令）。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"No help topic for",
		"Incorrect Usage",
		"flag needs an argument",
		"invalid value",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
