// Package mike drives the external site generator's versioning wrapper. It
// owns no rendering of its own; it hands over a config and a docs directory
// and gets version-namespaced static output committed to the publish branch.
package mike

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"git.home.luguber.info/inful/pipedocs/internal/logfields"
	"git.home.luguber.info/inful/pipedocs/internal/versioning"
)

// Binary is the executable invoked for all site-generation operations.
const Binary = "mike"

// Runner invokes the site generator inside one repository checkout. All
// output stays local (commits on the publish branch) until something
// explicitly pushes.
type Runner struct {
	// Dir is the repository checkout the generator runs in.
	Dir string
	// Env appends to the inherited environment, e.g. GITHUB_* variables.
	Env []string
}

// Available reports whether the generator binary is on PATH.
func Available() bool {
	_, err := exec.LookPath(Binary)
	return err == nil
}

// Deploy builds the docs for one version from the current checkout and
// commits them under the version's path on the publish branch, updating any
// aliases to point there.
func (r *Runner) Deploy(configFile string, d versioning.Deployment) error {
	props, err := json.Marshal(d.Properties)
	if err != nil {
		return fmt.Errorf("encoding version properties: %w", err)
	}

	args := []string{"deploy", "--config-file", configFile, "--prop-set-all", string(props)}
	if len(d.Aliases) > 0 {
		args = append(args, "--update-aliases", d.Version)
		args = append(args, d.Aliases...)
	} else {
		args = append(args, d.Version)
	}

	slog.Info("Deploying version", logfields.Version(d.Version), slog.Any("aliases", d.Aliases))
	return r.run(args...)
}

// SetDefault makes the site root redirect to the given alias. A no-op after
// the first deployment, but it never causes problems to repeat.
func (r *Runner) SetDefault(configFile, alias string) error {
	return r.run("set-default", "--config-file", configFile, alias)
}

// List reads back the manifest of published versions from the publish
// branch. An empty manifest is normal before the first deployment.
func (r *Runner) List() (versioning.Manifest, error) {
	out, err := r.output("list", "--json")
	if err != nil {
		return nil, err
	}

	var entries []versioning.DocumentedVersion
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s list output: %w", Binary, err)
	}

	manifest := make(versioning.Manifest, len(entries))
	for _, entry := range entries {
		manifest[entry.Version] = entry
	}
	return manifest, nil
}

func (r *Runner) run(args ...string) error {
	cmd := r.command(args...)
	var stderr bytes.Buffer
	cmd.Stdout = os.Stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w: %s", Binary, args[0], err, stderr.String())
	}
	return nil
}

func (r *Runner) output(args ...string) ([]byte, error) {
	cmd := r.command(args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s failed: %w: %s", Binary, args[0], err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (r *Runner) command(args ...string) *exec.Cmd {
	cmd := exec.Command(Binary, args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), r.Env...)
	return cmd
}
