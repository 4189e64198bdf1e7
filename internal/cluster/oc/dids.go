package oc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Quidge/orgbook-manage/internal/log"
	"github.com/Quidge/orgbook-manage/internal/pathutil"
)

// RegisterDIDs runs the configured registration command once with every name
// as an argument.
func (a *Adapter) RegisterDIDs(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return errors.New("no DID names to register")
	}

	command, err := a.resolveTool(a.settings.RegisterDidsCommand)
	if err != nil {
		return err
	}

	log.Info(a.logger, "Registering DIDs", "names", strings.Join(names, ","))
	if err := a.runner.Run(ctx, a.outputOnly(), command, names...); err != nil {
		return fmt.Errorf("failed to register DIDs %s: %w", strings.Join(names, ", "), err)
	}
	return nil
}

// resolveTool finds an external tool. Paths are taken relative to the
// settings directory; bare names are looked up on PATH, then in the settings
// directory.
func (a *Adapter) resolveTool(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		if a.toolsDir != "" {
			return pathutil.ResolveRelative(a.toolsDir, name), nil
		}
		return name, nil
	}

	if dir := pathutil.FindInPathList(a.pathList, name); dir != "" {
		return filepath.Join(dir, name), nil
	}
	if a.toolsDir != "" {
		candidate := filepath.Join(a.toolsDir, name)
		if pathutil.ExistsAndIsFile(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s could not be found on the path or in %q", name, a.toolsDir)
}
