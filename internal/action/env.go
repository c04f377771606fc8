package action

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dyne/rot13/internal/log"
)

// EnvCore implements Core over the runner protocol: inputs arrive as
// INPUT_* environment variables, outputs are appended to the file named by
// GITHUB_OUTPUT, failures become ::error:: workflow commands on stdout.
type EnvCore struct {
	OutputPath string
	Stdout     io.Writer
	Logger     *log.Logger

	failed bool
}

func NewEnvCore(logger *log.Logger) *EnvCore {
	return &EnvCore{
		OutputPath: os.Getenv("GITHUB_OUTPUT"),
		Stdout:     os.Stdout,
		Logger:     logger,
	}
}

func (c *EnvCore) GetInput(name string) (string, bool) {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return os.LookupEnv(key)
}

func (c *EnvCore) SetOutput(name, value string) error {
	if c.OutputPath == "" {
		return fmt.Errorf("GITHUB_OUTPUT is not set")
	}
	f, err := os.OpenFile(c.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, formatOutput(name, value)); err != nil {
		return fmt.Errorf("append output: %w", err)
	}
	return nil
}

func (c *EnvCore) SetFailed(message string) {
	c.failed = true
	fmt.Fprintf(c.Stdout, "::error::%s\n", escapeData(message))
}

func (c *EnvCore) Infof(format string, args ...any) {
	c.Logger.Infof(format, args...)
}

// Failed reports whether SetFailed was called during this invocation.
func (c *EnvCore) Failed() bool {
	return c.failed
}

// formatOutput renders a key=value line, switching to the runner's heredoc
// form when the value spans lines. The delimiter is random so a crafted
// value cannot terminate the block early.
func formatOutput(name, value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return fmt.Sprintf("%s=%s\n", name, value)
	}
	delimiter := "ghadelimiter_" + uuid.NewString()
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}
