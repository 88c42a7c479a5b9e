package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/estoque-app/estoque/internal/tui"
	"github.com/estoque-app/estoque/pkg/client"
	"github.com/estoque-app/estoque/pkg/session"
)

var errNotSignedIn = errors.New("não autenticado, use: estoque login --user <usuário>")

func loginCmd(apiURL *string) *cobra.Command {
	var (
		user   string
		launch bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Entrar e guardar a sessão",
		Long: `Entra com usuário e senha. A senha vem de $ESTOQUE_PASSWORD ou,
se vazia, da primeira linha da entrada padrão.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return errors.New("--user é obrigatório")
			}
			pass, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			e.store.Reload(cmd.Context())
			if err := e.store.SignIn(cmd.Context(), user, pass); err != nil {
				if errors.Is(err, session.ErrNoIdentity) {
					return err
				}
				return errors.New(client.ExtractMessage(err))
			}

			printIdentity(cmd.OutOrStdout(), e.store.Snapshot())
			if launch {
				return runTUI(cmd.Context(), e, "/")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "nome de usuário")
	cmd.Flags().BoolVar(&launch, "tui", false, "abrir o terminal depois de entrar")
	return cmd
}

func logoutCmd(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Encerrar a sessão",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			if e.store.Reload(cmd.Context()).Status != session.StatusAuthenticated {
				e.client.ClearCookies()
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma sessão ativa.")
				return nil
			}
			if err := e.store.SignOut(cmd.Context()); err != nil {
				return err
			}
			e.client.ClearCookies()
			fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada.")
			return nil
		},
	}
}

func whoamiCmd(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar o usuário da sessão atual",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), *apiURL)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			snap := e.store.Reload(cmd.Context())
			if snap.Status != session.StatusAuthenticated {
				return errNotSignedIn
			}
			printIdentity(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

// readPassword takes $ESTOQUE_PASSWORD, falling back to one line of in.
func readPassword(in io.Reader) (string, error) {
	if p := os.Getenv("ESTOQUE_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("senha vazia: defina ESTOQUE_PASSWORD ou envie pela entrada padrão")
	}
	return line, nil
}

func printIdentity(w io.Writer, snap session.Snapshot) {
	u := snap.User
	fmt.Fprintf(w, "Autenticado como %s\n", u.DisplayName())
	fmt.Fprintf(w, "  usuário: %s\n", u.Username)
	fmt.Fprintf(w, "  perfil:  %s\n", u.PrimaryRole())
	fmt.Fprintf(w, "  perfis:  %s\n", tui.RoleBadges(u.RoleSet()))
}
