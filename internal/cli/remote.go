package cli

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			auth, err := NewClient(rt.server(), "", rt.httpClient).Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			path, err := rt.saveCredentials(credentials{Server: rt.server(), Username: auth.Username, Token: auth.Token})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (token saved to %s)\n", auth.Username, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")

	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the API token and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.client()
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			if err := rt.removeCredentials(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newUploadCommand(rt *runtime) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV and print the resulting dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.client()
			if err != nil {
				return err
			}

			f, err := rt.fs.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			ds, err := c.Upload(cmd.Context(), args[0], f, name)
			if err != nil {
				return err
			}

			return printValue(cmd.OutOrStdout(), rt.v.GetString("output"), ds)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "dataset name (defaults to the upload time)")

	return cmd
}

func newDatasetsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets [id]",
		Short: "List recent datasets, or show one with its preview rows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.client()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				ds, err := c.Dataset(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printValue(cmd.OutOrStdout(), rt.v.GetString("output"), ds)
			}

			list, err := c.Datasets(cmd.Context())
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), rt.v.GetString("output"), list)
		},
	}
}

func newDeleteCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.client()
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted dataset %s\n", args[0])
			return nil
		},
	}
}

func newReportCommand(rt *runtime) *cobra.Command {
	return newFetchCommand(rt, "report <id>", "Download the PDF report of a dataset", (*Client).Report)
}

func newDownloadCommand(rt *runtime) *cobra.Command {
	return newFetchCommand(rt, "download <id>", "Download the originally uploaded CSV of a dataset", (*Client).Original)
}

type fetchFunc func(c *Client, ctx context.Context, id string) (string, []byte, error)

func newFetchCommand(rt *runtime, use, short string, fetch fetchFunc) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.client()
			if err != nil {
				return err
			}

			filename, content, err := fetch(c, cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := outPath
			if path == "" {
				path = filename
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := rt.fs.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("mkdir %s: %w", dir, err)
				}
			}
			if err := afero.WriteFile(rt.fs, path, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(content))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "file", "f", "", "destination path (defaults to the server filename)")

	return cmd
}

func newInsightsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "insights <id>",
		Short: "Print AI commentary for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.client()
			if err != nil {
				return err
			}

			res, err := c.Insights(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Insights)
			return nil
		},
	}
}
