package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"agent-bundles/internal/ports"
)

// BundleInstallerFileAdapter writes bundles as <Dir>/<name>.md.
type BundleInstallerFileAdapter struct {
	Dir string
}

var _ ports.BundleInstallerPort = BundleInstallerFileAdapter{}

func NewBundleInstallerFileAdapter(dir string) BundleInstallerFileAdapter {
	return BundleInstallerFileAdapter{Dir: dir}
}

func (a BundleInstallerFileAdapter) Install(ctx context.Context, bundle string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := strings.TrimSpace(bundle)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid bundle name: " + bundle)
	}
	path, err := a.ensurePath(name + ".md")
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, content); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to install bundle " + name).
			WithCause(err)
	}
	return path, nil
}

func (a BundleInstallerFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("install directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create install directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}
