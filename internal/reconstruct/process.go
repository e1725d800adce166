package reconstruct

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"meshpose/internal/config"
	"meshpose/internal/glb"
	"meshpose/internal/imageio"
	"meshpose/internal/logging"
	"meshpose/internal/mask"
	"meshpose/internal/pose"
)

// Exchange file names inside the per-run temp directory.
const (
	imageFile = "image.png"
	maskFile  = "mask.npy"
	meshFile  = "mesh.glb"
	poseFile  = "pose.json"
)

// DefaultArgs is used when the config names a command but no arguments.
var DefaultArgs = []string{
	"--image", "{image}",
	"--mask", "{mask}",
	"--config", "{model_config}",
	"--seed", "{seed}",
	"--glb", "{glb}",
	"--pose", "{pose}",
}

// stderrTail bounds how much model stderr is quoted in an error.
const stderrTail = 4096

// Process runs the model as a child process and exchanges data through files:
// it writes image.png and mask.npy, and expects mesh.glb and pose.json back.
// The same paths are exported as MESHPOSE_* environment variables.
type Process struct {
	Command     string
	Args        []string
	ModelConfig string
	Dir         string
	Env         map[string]string
	Timeout     time.Duration
	KeepTemp    bool
	Logger      *slog.Logger
}

// NewProcess builds a process reconstructor from a resolved config.
func NewProcess(cfg config.Config, logger *slog.Logger) *Process {
	if logger == nil {
		logger = logging.NewNop()
	}
	args := cfg.Args
	if len(args) == 0 {
		args = DefaultArgs
	}
	return &Process{
		Command:     cfg.Command,
		Args:        args,
		ModelConfig: cfg.ModelConfig,
		Dir:         cfg.WorkDir,
		Env:         cfg.Env,
		Timeout:     cfg.Timeout,
		KeepTemp:    cfg.KeepTemp,
		Logger:      logger,
	}
}

// Reconstruct runs one model invocation.
func (p *Process) Reconstruct(ctx context.Context, in Input) (*Output, error) {
	if p.Command == "" {
		return nil, errors.New("reconstruct: no command configured")
	}
	if in.Image == nil || in.Mask == nil {
		return nil, errors.New("reconstruct: image and mask are required")
	}

	tmp, err := os.MkdirTemp("", "meshpose-*")
	if err != nil {
		return nil, fmt.Errorf("reconstruct: temp dir: %w", err)
	}
	if p.KeepTemp {
		p.Logger.Info("keeping exchange directory", "dir", tmp)
	} else {
		defer os.RemoveAll(tmp)
	}

	vars := map[string]string{
		"image":        filepath.Join(tmp, imageFile),
		"mask":         filepath.Join(tmp, maskFile),
		"glb":          filepath.Join(tmp, meshFile),
		"pose":         filepath.Join(tmp, poseFile),
		"seed":         strconv.FormatInt(in.Seed, 10),
		"model_config": p.ModelConfig,
	}

	if err := imageio.SavePNG(vars["image"], in.Image); err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}
	if err := writeMask(vars["mask"], in.Mask); err != nil {
		return nil, err
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := ExpandArgs(p.Args, vars)
	cmd := exec.CommandContext(ctx, p.Command, args...)
	cmd.Dir = p.Dir
	cmd.Env = append(cmd.Environ(), environ(vars, p.Env)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	p.Logger.Debug("running reconstructor", "command", p.Command, "args", args)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (%v)", ctx.Err(), err)
		}
		return nil, fmt.Errorf("reconstruct: %s failed: %w; stderr: %s", p.Command, err, tail(stderr.String()))
	}
	p.Logger.Info("reconstruction finished", "elapsed", time.Since(start).Round(time.Millisecond))

	mesh, err := glb.Load(vars["glb"])
	if err != nil {
		return nil, fmt.Errorf("reconstruct: model output: %w", err)
	}
	raw, err := pose.ReadModelOutput(vars["pose"])
	if err != nil {
		return nil, fmt.Errorf("reconstruct: model output: %w", err)
	}
	return &Output{Mesh: mesh, Pose: raw}, nil
}

func writeMask(path string, m *mask.Mask) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reconstruct: create %s: %w", path, err)
	}
	if err := mask.WriteNPY(f, m); err != nil {
		f.Close()
		return fmt.Errorf("reconstruct: %s: %w", path, err)
	}
	return f.Close()
}

// ExpandArgs substitutes {name} placeholders in every argument.
func ExpandArgs(args []string, vars map[string]string) []string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// environ exports exchange paths as MESHPOSE_<NAME> plus the configured extras.
func environ(vars, extra map[string]string) []string {
	env := make([]string, 0, len(vars)+len(extra))
	for k, v := range vars {
		env = append(env, fmt.Sprintf("MESHPOSE_%s=%s", strings.ToUpper(k), v))
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "…" + s[len(s)-stderrTail:]
	}
	return s
}
