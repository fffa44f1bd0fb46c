// Command ftpd is the FTP server bootstrap: it loads configuration,
// binds the command listener over the configured transport, and runs
// until the operator presses q+Enter or Ctrl-C.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rdnt/rudpftp/internal/config"
	"github.com/rdnt/rudpftp/internal/ftp"
	"github.com/rdnt/rudpftp/internal/logging"
)

var (
	appName    = "rudpftp server"
	appVersion = "dev" // injected at build time via -ldflags
)

func main() {
	args, action := parseFlags()
	if action != "" {
		return
	}
	if err := run(args); err != nil {
		log.Fatalln(err)
	}
}

type parsedArgs struct {
	host       string
	port       string
	transport  string
	logLevel   string
	configFile string
}

func parseFlags() (parsedArgs, string) {
	return parseFlagsWithArgs(os.Args[1:])
}

func parseFlagsWithArgs(args []string) (parsedArgs, string) {
	fs := flag.NewFlagSet("ftpd", flag.ContinueOnError)
	hostFlag := fs.String("host", "", "bind address")
	portFlag := fs.String("port", "", "command channel port")
	transportFlag := fs.String("transport", "", "stream transport: tcp or rudp")
	logLevelFlag := fs.String("log-level", "", "log level (debug, info, warn, error)")
	configFlag := fs.String("config", "", "path to an optional YAML config file")
	helpFlag := fs.Bool("help", false, "show help")
	versionFlag := fs.Bool("version", false, "show version")

	_ = fs.Parse(args)

	if *helpFlag {
		showHelp()
		return parsedArgs{}, "help"
	}
	if *versionFlag {
		showVersion()
		return parsedArgs{}, "version"
	}

	return parsedArgs{
		host:       strings.TrimSpace(*hostFlag),
		port:       strings.TrimSpace(*portFlag),
		transport:  strings.TrimSpace(*transportFlag),
		logLevel:   strings.TrimSpace(*logLevelFlag),
		configFile: strings.TrimSpace(*configFlag),
	}, ""
}

func run(args parsedArgs) error {
	opts := config.LoadOptions{
		Host:       args.host,
		Port:       args.port,
		Transport:  args.transport,
		LogLevel:   args.logLevel,
		ConfigFile: args.configFile,
	}

	cfg, err := config.LoadWithOverrides(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.SetLevelFromString(cfg.Logging.Level)

	ln, err := ftp.NewListener(cfg)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	logging.Info("%s: listening on %s:%s over %s (press q and Enter, or Ctrl-C, to stop)",
		appName, cfg.Server.Host, cfg.Server.Port, cfg.Transport.Protocol)

	done := make(chan struct{})
	go func() {
		ln.Serve()
		close(done)
	}()

	waitForShutdown()
	ln.Shutdown()
	<-done

	return nil
}

// waitForShutdown blocks until the operator types q+Enter on stdin or
// sends SIGINT/SIGTERM.
func waitForShutdown() {
	stdinLine := make(chan string, 1)
	go func() {
		in := bufio.NewReader(os.Stdin)
		for {
			line, err := in.ReadString('\n')
			stdinLine <- strings.ToLower(strings.TrimSpace(line))
			if err != nil {
				return
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case line := <-stdinLine:
			if line == "q" {
				return
			}
		case <-sigCh:
			return
		}
	}
}

func showHelp() {
	fmt.Println(appName)
	fmt.Println("USAGE: ftpd [options]")
	fmt.Println("OPTIONS:")
	fmt.Println("  -host        Bind address (default 0.0.0.0)")
	fmt.Println("  -port        Command channel port (default 20383)")
	fmt.Println("  -transport   Stream transport: tcp or rudp (default tcp)")
	fmt.Println("  -log-level   Log level: debug, info, warn, error (default info)")
	fmt.Println("  -config      Path to an optional YAML config file")
	fmt.Println("  -version     Show version information")
	fmt.Println("  -help        Show this help message")
}

func showVersion() {
	fmt.Printf("%s %s\n", appName, appVersion)
}
