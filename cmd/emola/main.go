package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/rphilander/emola"
	"github.com/rphilander/emola/internal/boot"
)

const (
	appName     = "emola"
	historyFile = ".emola_history"
	promptMain  = "emola> "
	promptCont  = "   ... "
)

var (
	banner   = fmt.Sprintf("emola %s\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.", emola.Version)
	helpText = `REPL commands:
  :quit      Exit the REPL
  :env       List global bindings
  :traces    Show recent evaluations
  :clear     Drop all global bindings and the definition log

Only top-level def forms bind globally. A def inside (do ...) or a function
body is local to that block: (do (def x 1)) leaves x unbound afterwards.
`
)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	args := os.Args[1:]
	cmd := "repl"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "repl":
		os.Exit(cmdRepl(args))
	case "run":
		os.Exit(cmdRun(args))
	case "version":
		fmt.Println(emola.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`emola %s

Usage:
  %s [repl]            Start the REPL (default).
  %s run <file>...     Evaluate every expression in each file.
  %s version           Print the version.

Only top-level def forms bind globally and are replayed from the log;
a def inside (do ...) is local to that block.

Configuration is read from $EMOLA_CONFIG (YAML) and EMOLA_* variables.
`, emola.Version, appName, appName, appName)
}

func loadConfig() emola.Config {
	cfg, err := emola.LoadConfig(os.Getenv("EMOLA_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func cmdRun(args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file>...\n", appName)
		return 2
	}
	session, err := boot.OpenSession(loadConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer session.Close()

	for _, name := range args {
		src, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			return 1
		}
		if _, err := session.EvalAll(string(src)); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, err)
			return 1
		}
	}
	return 0
}

func cmdRepl(_ []string) int {
	cfg := loadConfig()
	session, err := boot.OpenSession(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer session.Close()

	fmt.Println(banner)

	histPath := cfg.History
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		session.Close()
		os.Exit(130)
	}()

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if quit := handleReplCommand(session, trimmed); quit {
				return 0
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		evalAndPrint(os.Stdout, os.Stderr, session, code)
	}
}

// evalAndPrint evaluates every expression on the input, printing each
// result, and stops at the first error. Earlier bindings survive a failure.
func evalAndPrint(stdout, stderr io.Writer, session *emola.Session, code string) {
	trees, err := emola.ParseAllString(code)
	if err != nil {
		fmt.Fprintln(stderr, red(err.Error()))
		return
	}
	for _, t := range trees {
		v, err := session.EvalTree(t)
		if err != nil {
			fmt.Fprintln(stderr, red(err.Error()))
			return
		}
		fmt.Fprintln(stdout, v.Repr())
	}
}

func handleReplCommand(session *emola.Session, line string) (quit bool) {
	switch strings.ToLower(line) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Print(helpText)
	case ":env":
		for _, b := range session.Bindings() {
			fmt.Printf("%s = %s\n", b.Name, b.Value.Repr())
		}
	case ":traces":
		for _, t := range session.Traces(20) {
			if t.Failed() {
				fmt.Printf("%s  %s  ! %s\n", t.Timestamp, t.Entry, t.Error)
			} else {
				fmt.Printf("%s  %s  => %s (%d steps)\n", t.Timestamp, t.Entry, t.Result.Repr(), t.Steps)
			}
		}
	case ":clear":
		if err := session.Clear(); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
		}
	default:
		fmt.Println("unknown command. Type :help for commands.")
	}
	return false
}

// readByParseProbe keeps prompting while the input so far is an unclosed
// list or string literal.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := emola.ParseAllString(src); perr != nil && emola.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}
