package cli

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/shuttle-pass/internal/infrastructure/crypto"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate CRED_ENC_KEY, SESSION_HASH_KEY and SESSION_BLOCK_KEY values (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			hash := securecookie.GenerateRandomKey(32)
			block := securecookie.GenerateRandomKey(32)
			if hash == nil || block == nil {
				return errors.New("generate session keys: random source failed")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "export CRED_ENC_KEY=%s\n", base64.StdEncoding.EncodeToString(cred))
			fmt.Fprintf(out, "export SESSION_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(out, "export SESSION_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a web UI password from stdin and print UI_PASSWORD_BCRYPT",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readLine(cmd)
			if err != nil {
				return err
			}
			if pw == "" {
				return errors.New("password must not be empty")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export UI_PASSWORD_BCRYPT='%s'\n", hash)
			return nil
		},
	}
}

// readLine returns the first line of stdin without its line ending.
func readLine(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
