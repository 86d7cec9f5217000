package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xcontrib/pkg/config/xconf"
	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/observability/xlog"
)

func createCommands(reg *xintegration.Registry) []*cli.Command {
	return []*cli.Command{
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "列出已登记的集成",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if err := applyConfig(cmd, reg); err != nil {
					return err
				}
				return cmdList(cmd.Root().Writer, reg)
			},
		},
		{
			Name:      "check",
			Usage:     "检查集成能否启用",
			ArgsUsage: "<name>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if cmd.Args().Len() != 1 {
					return &usageError{msg: "check 需要且仅需要一个集成名"}
				}
				if err := applyConfig(cmd, reg); err != nil {
					return err
				}
				return cmdCheck(cmd.Root().Writer, reg, cmd.Args().First())
			},
		},
		{
			Name:      "resolve",
			Usage:     "输出查找键的生效配置",
			ArgsUsage: "<name> <key>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				if cmd.Args().Len() != 2 {
					return &usageError{msg: "resolve 需要集成名和查找键"}
				}
				if err := applyConfig(cmd, reg); err != nil {
					return err
				}
				return cmdResolve(cmd.Root().Writer, reg, cmd.Args().Get(0), cmd.Args().Get(1))
			},
		},
		{
			Name:  "watch",
			Usage: "监视配置文件并在变更时重新应用，直到中断",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "for",
					Usage: "运行时长，0 表示直到收到中断信号",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				path := cmd.String("config")
				if path == "" {
					return &usageError{msg: "watch 需要 --config"}
				}
				return cmdWatch(ctx, cmd.Root().Writer, reg, path, cmd.Duration("for"))
			},
		},
	}
}

// setupLogger 按 --log-level 设置全局 logger，输出到 stderr。
func setupLogger(stderr io.Writer) cli.BeforeFunc {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		logger, _, err := xlog.New().
			SetOutput(stderr).
			SetLevelString(cmd.String("log-level")).
			Build()
		if err != nil {
			return ctx, &usageError{msg: err.Error()}
		}
		xlog.SetDefault(logger)
		return ctx, nil
	}
}

// applyConfig 指定了 --config 时将配置应用到 reg。
func applyConfig(cmd *cli.Command, reg *xintegration.Registry) error {
	path := cmd.String("config")
	if path == "" {
		return nil
	}
	cfg, err := xconf.New(path)
	if err != nil {
		return err
	}
	return xintegration.ApplyConfig(reg, cfg)
}

func cmdList(w io.Writer, reg *xintegration.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTARGET\tMINIMUM\tVERSION\tLOADED\tCOMPATIBLE\tENABLED")
	for _, name := range reg.Names() {
		s, err := reg.Status(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\t%t\n",
			s.Name, s.Target, orDash(s.Minimum), orDash(s.Version), s.Loaded, s.Compatible, s.Enabled)
	}
	return tw.Flush()
}

func cmdCheck(w io.Writer, reg *xintegration.Registry, name string) error {
	s, err := reg.Status(name)
	if err != nil {
		return err
	}
	if !s.Compatible {
		fmt.Fprintf(w, "%s: incompatible: %s\n", name, s.Reason)
		return &exitError{code: 1}
	}
	if !s.Enabled {
		fmt.Fprintf(w, "%s: disabled by configuration\n", name)
		return &exitError{code: 1}
	}
	fmt.Fprintf(w, "%s: compatible (%s %s)\n", name, s.Target, orDash(s.Version))
	return nil
}

func cmdResolve(w io.Writer, reg *xintegration.Registry, name, key string) error {
	d, err := reg.Get(name)
	if err != nil {
		return err
	}
	if m, ok := d.Resolver().Lookup(key); ok {
		fmt.Fprintf(w, "# matched %s\n", m.Matcher)
	} else {
		fmt.Fprintln(w, "# defaults")
	}
	writeSettings(w, d.Settings(key))
	return nil
}

// cmdWatch 应用并监视 path，结束前输出最终状态。
func cmdWatch(ctx context.Context, w io.Writer, reg *xintegration.Registry, path string, d time.Duration) error {
	cfg, err := xconf.New(path)
	if err != nil {
		return err
	}
	watcher, err := xintegration.WatchConfig(reg, cfg)
	if watcher == nil {
		return err
	}
	if err != nil {
		xlog.Warn(ctx, "xcontribctl: initial apply failed", xlog.Err(err))
	}
	defer func() { _ = watcher.Stop() }()

	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	xlog.Info(ctx, "xcontribctl: watching", slog.String("path", path))
	<-ctx.Done()
	return cmdList(w, reg)
}

func writeSettings(w io.Writer, s xsettings.Settings) {
	for _, k := range s.Keys() {
		v, _ := s.Get(k)
		if list, ok := v.([]string); ok {
			v = strings.Join(list, ",")
		}
		fmt.Fprintf(w, "%s=%v\n", k, v)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
