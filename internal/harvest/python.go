package harvest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kluctl/go-embed-python/python"
	"go.uber.org/zap"

	"github.com/mvp-joe/docharvest/internal/logger"
)

//go:embed scripts/harvest.py
var harvestScript []byte

// ErrRuntimeUnavailable indicates no interpreter could be started.
var ErrRuntimeUnavailable = errors.New("python runtime unavailable")

// RuntimeMode selects where the interpreter comes from.
type RuntimeMode string

const (
	// RuntimeEmbedded runs the CPython build bundled into the binary.
	RuntimeEmbedded RuntimeMode = "embedded"
	// RuntimeSystem runs an interpreter found on the host.
	RuntimeSystem RuntimeMode = "system"
	// RuntimeStubs reads .pyi stubs instead of running anything.
	RuntimeStubs RuntimeMode = "stubs"
)

// PythonOptions configures a PythonIntrospector.
type PythonOptions struct {
	Mode RuntimeMode
	// Interpreter is the executable used in system mode.
	Interpreter string
	// RuntimeDir is where the embedded interpreter is extracted. Extraction is
	// skipped on later runs when the directory is up to date.
	RuntimeDir string
	Logger     *zap.SugaredLogger
}

// PythonIntrospector runs the harvest script under a live interpreter.
type PythonIntrospector struct {
	opts PythonOptions
	log  *zap.SugaredLogger
}

// NewPythonIntrospector creates an introspector for the embedded or system runtime.
func NewPythonIntrospector(opts PythonOptions) (*PythonIntrospector, error) {
	switch opts.Mode {
	case "":
		opts.Mode = RuntimeEmbedded
	case RuntimeEmbedded, RuntimeSystem:
	default:
		return nil, errors.Newf("python introspector does not support runtime %q", opts.Mode)
	}
	if opts.Mode == RuntimeSystem && opts.Interpreter == "" {
		opts.Interpreter = "python3"
	}
	if opts.Mode == RuntimeEmbedded && opts.RuntimeDir == "" {
		dir, err := DefaultRuntimeDir()
		if err != nil {
			return nil, err
		}
		opts.RuntimeDir = dir
	}

	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("python")
	}
	return &PythonIntrospector{opts: opts, log: log}, nil
}

// DefaultRuntimeDir is the persistent extraction directory for the embedded
// interpreter, ~/.docharvest/python.
func DefaultRuntimeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, ".docharvest", "python"), nil
}

// Introspect writes the script and request into a temp dir, runs the script
// and decodes the snapshot it prints.
func (p *PythonIntrospector) Introspect(ctx context.Context, req Request) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "docharvest-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	scriptPath := filepath.Join(tmpDir, "harvest.py")
	if err := os.WriteFile(scriptPath, harvestScript, 0644); err != nil {
		return nil, errors.Wrap(err, "failed to write harvest script")
	}

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}
	reqPath := filepath.Join(tmpDir, "request.json")
	if err := os.WriteFile(reqPath, reqData, 0644); err != nil {
		return nil, errors.Wrap(err, "failed to write request")
	}

	cmd, err := p.command(ctx, scriptPath, reqPath)
	if err != nil {
		return nil, err
	}
	cmd.Env = append(cmd.Env, "PYTHONIOENCODING=utf-8")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.log.Debugw("Running harvest script",
		logger.FieldRuntime, string(p.opts.Mode),
		logger.FieldPath, cmd.Path)

	if err := run(ctx, cmd); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.Wrapf(ErrRuntimeUnavailable, "harvest script failed: %s", msg)
	}

	return ParseSnapshot(stdout.Bytes())
}

func (p *PythonIntrospector) command(ctx context.Context, scriptPath, reqPath string) (*exec.Cmd, error) {
	if p.opts.Mode == RuntimeSystem {
		path, err := exec.LookPath(p.opts.Interpreter)
		if err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(ErrRuntimeUnavailable, "interpreter %q not found", p.opts.Interpreter),
				"set harvest.python to a Python 3 executable or use harvest.runtime: embedded")
		}
		cmd := exec.CommandContext(ctx, path, scriptPath, reqPath)
		cmd.Env = os.Environ()
		return cmd, nil
	}

	ep, err := python.NewEmbeddedPythonWithTmpDir(p.opts.RuntimeDir, true)
	if err != nil {
		return nil, errors.Wrapf(ErrRuntimeUnavailable, "failed to extract embedded python: %v", err)
	}
	cmd, err := ep.PythonCmd(scriptPath, reqPath)
	if err != nil {
		return nil, errors.Wrapf(ErrRuntimeUnavailable, "failed to create python command: %v", err)
	}
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	return cmd, nil
}

// run starts cmd and waits for it, killing the process if ctx is cancelled.
// Commands built without a context are not tied to ctx by exec itself.
func run(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		return ctx.Err()
	}
}

// ParseSnapshot decodes the JSON printed by the harvest script.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Wrap(ErrMalformedSnapshot, "empty output")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(ErrMalformedSnapshot, "invalid JSON: %v", err)
	}
	if snap.RuntimeVersion == "" {
		return nil, errors.Wrap(ErrMalformedSnapshot, "missing runtime_version")
	}
	return &snap, nil
}
