package adapters

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/ports"
)

const DefaultMarkerMaxAge = time.Hour

var (
	_ ports.GateCheck = TeamAssemblyCheck{}
	_ ports.GateCheck = SpecialistConsultationCheck{}
	_ ports.GateCheck = SoloPatternCheck{}
	_ ports.GateCheck = EnforcerActiveCheck{}
)

type GateCheckOptions struct {
	ProjectRoot  string
	MarkerMaxAge time.Duration
	Clock        func() time.Time
}

// NewGateChecks returns the team-first checks in report order.
func NewGateChecks(opts GateCheckOptions) []ports.GateCheck {
	root := opts.ProjectRoot
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	return []ports.GateCheck{
		TeamAssemblyCheck{
			Path:   filepath.Join(root, ".sdlc", "state", "team-assembly.json"),
			MaxAge: opts.MarkerMaxAge,
			Clock:  opts.Clock,
		},
		SpecialistConsultationCheck{Path: filepath.Join(root, ".sdlc", "logs", "specialist-consultation.log")},
		SoloPatternCheck{Dir: filepath.Join(root, "retrospectives"), Patterns: DefaultSoloPatterns()},
		EnforcerActiveCheck{Path: filepath.Join(root, ".sdlc", "logs", "sdlc-enforcer.log")},
	}
}

// TeamAssemblyCheck passes when the assembly marker is younger than MaxAge.
// The marker's own timestamp wins over the file mtime.
type TeamAssemblyCheck struct {
	Path   string
	MaxAge time.Duration
	Clock  func() time.Time
}

func (c TeamAssemblyCheck) Name() string { return "team-assembly" }

func (c TeamAssemblyCheck) Passed(ctx context.Context) (bool, error) {
	info, err := os.Stat(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, markerError(c.Path, err)
	}
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return false, markerError(c.Path, err)
	}
	stamp := info.ModTime()
	var marker struct {
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if json.Unmarshal(data, &marker) == nil && len(marker.Timestamp) > 0 {
		raw := strings.Trim(string(marker.Timestamp), `"`)
		if parsed := parseMarkerTime(raw, time.Local); !parsed.IsZero() {
			stamp = parsed
		}
	}
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMarkerMaxAge
	}
	now := time.Now()
	if c.Clock != nil {
		now = c.Clock()
	}
	age := now.Sub(stamp)
	log.Debug().Str("marker", c.Path).Dur("age", age).Dur("max_age", maxAge).Msg("team assembly marker")
	return age < maxAge, nil
}

type SpecialistConsultationCheck struct {
	Path string
}

func (c SpecialistConsultationCheck) Name() string { return "specialist-consultation" }

func (c SpecialistConsultationCheck) Passed(ctx context.Context) (bool, error) {
	info, err := os.Stat(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, markerError(c.Path, err)
	}
	return !info.IsDir() && info.Size() > 0, nil
}

type EnforcerActiveCheck struct {
	Path string
}

func (c EnforcerActiveCheck) Name() string { return "enforcer-active" }

func (c EnforcerActiveCheck) Passed(ctx context.Context) (bool, error) {
	_, err := os.Stat(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, markerError(c.Path, err)
	}
	return true, nil
}

// SoloPatternCheck fails when any markdown file under Dir mentions work done
// without the team. A missing Dir passes.
type SoloPatternCheck struct {
	Dir      string
	Patterns []*regexp.Regexp
}

func DefaultSoloPatterns() []*regexp.Regexp {
	sources := []string{
		`(?i)\bworking\s+alone\s+on`,
		`(?i)\bsolo\s+(development|work|implementation|effort)`,
		`(?i)\bwithout\s+(team|specialist|agent|consultation)\s+(input|review|approval)`,
		`(?i)\bindependent\s+(development|implementation|decision)`,
		`(?i)\bunilateral\s+(decision|change|implementation)`,
		`(?i)\bskipping\s+(validation|compliance|review)`,
		`(?i)\bbypassing\s+(sdlc-enforcer|compliance|validation)`,
		`(?i)\bignoring\s+(standards|requirements|protocols)`,
		`(?i)\bworkaround\s+for\s+(compliance|validation|enforcement)`,
	}
	patterns := make([]*regexp.Regexp, 0, len(sources))
	for _, source := range sources {
		patterns = append(patterns, regexp.MustCompile(source))
	}
	return patterns
}

func (c SoloPatternCheck) Name() string { return "no-solo-patterns" }

func (c SoloPatternCheck) Passed(ctx context.Context) (bool, error) {
	if !dirExists(c.Dir) {
		return true, nil
	}
	clean := true
	err := filepath.WalkDir(c.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			return nil
		}
		line, hit, err := c.scanFile(path)
		if err != nil {
			return err
		}
		if hit != "" {
			log.Warn().Str("file", path).Int("line", line).Str("match", hit).Msg("solo work pattern found")
			clean = false
		}
		return nil
	})
	if err != nil {
		return false, markerError(c.Dir, err)
	}
	return clean, nil
}

func (c SoloPatternCheck) scanFile(path string) (int, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	number := 0
	for scanner.Scan() {
		number++
		for _, pattern := range c.Patterns {
			if match := pattern.FindString(scanner.Text()); match != "" {
				return number, match, nil
			}
		}
	}
	return 0, "", scanner.Err()
}

func markerError(path string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to read gate marker " + path).
		WithCause(err)
}
