package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const credentialsFile = "credentials.yaml"

type credentials struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// loadCredentials returns empty credentials when nothing was saved yet.
func (rt *runtime) loadCredentials() (credentials, error) {
	dir, err := rt.homeDir()
	if err != nil {
		return credentials{}, err
	}

	b, err := afero.ReadFile(rt.fs, filepath.Join(dir, credentialsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return credentials{}, nil
	}
	if err != nil {
		return credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var c credentials
	if err := yaml.Unmarshal(b, &c); err != nil {
		return credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	return c, nil
}

func (rt *runtime) saveCredentials(c credentials) (string, error) {
	dir, err := rt.homeDir()
	if err != nil {
		return "", err
	}
	if err := rt.fs.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	path := filepath.Join(dir, credentialsFile)
	if err := afero.WriteFile(rt.fs, path, b, 0o600); err != nil {
		return "", fmt.Errorf("write credentials: %w", err)
	}
	return path, nil
}

func (rt *runtime) removeCredentials() error {
	dir, err := rt.homeDir()
	if err != nil {
		return err
	}
	err = rt.fs.Remove(filepath.Join(dir, credentialsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
