package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xamyl/wikii/internal/config"
	"github.com/xamyl/wikii/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Name  string `arg:"" optional:"" help:"Project directory to create (defaults to the current directory name)"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	name := i.Name
	if name == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to determine working directory").Build()
		}
		name = filepath.Base(wd)
	}
	return RunInit(g.out(), name, i.Force)
}

// RunInit scaffolds a wiki project at dir: a docs/ folder with a starter
// page, an empty dist/ folder and a wikii.yaml.
func RunInit(out io.Writer, dir string, force bool) error {
	fmt.Fprintln(out, "Setting up your wiki project...")

	for _, sub := range []string{"docs", "dist"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			fmt.Fprintln(out, "Initialization failed")
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create project directory").
				WithContext("path", filepath.Join(dir, sub)).
				Build()
		}
	}

	indexPath := filepath.Join(dir, "docs", "index.md")
	if _, err := os.Stat(indexPath); err != nil || force {
		if err := os.WriteFile(indexPath, []byte(starterPage(filepath.Base(dir))), 0o644); err != nil {
			fmt.Fprintln(out, "Initialization failed")
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to write starter page").
				WithContext("path", indexPath).
				Build()
		}
	}

	cfgPath := filepath.Join(dir, config.DefaultFile)
	fmt.Fprintf(out, "Writing configuration to %s\n", cfgPath)
	if err := config.Init(cfgPath, force); err != nil {
		fmt.Fprintln(out, "Initialization failed")
		return err
	}

	fmt.Fprintln(out, "Wiki project setup complete!")
	fmt.Fprintln(out, "To start your wiki, run the following commands:")
	fmt.Fprintf(out, "cd %s\n", dir)
	fmt.Fprintln(out, "wikii build")
	fmt.Fprintln(out, "wikii serve")
	return nil
}

func starterPage(name string) string {
	return fmt.Sprintf("# %s\n\nWelcome to your wiki project! You can start editing your wiki in the `docs/` folder.", name)
}
