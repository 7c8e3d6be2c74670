package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

const keyringService = "hcpresearch"
const keyringUser = "rapidapi"

// rapidApiKey reads the stored key, falling back to the RAPIDAPI_KEY
// environment variable on systems without a keyring.
func rapidApiKey() (string, error) {
	key, err := keyring.Get(keyringService, keyringUser)
	if err == nil && key != "" {
		return key, nil
	}
	if env := os.Getenv("RAPIDAPI_KEY"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no RapidAPI key found, run `hcp-cli apikey set <key>` or set RAPIDAPI_KEY")
}

func init() {
	apikeyCmd.AddCommand(apikeySetCmd)
	apikeyCmd.AddCommand(apikeyShowCmd)
	rootCmd.AddCommand(apikeyCmd)
}

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manages the stored RapidAPI key.",
}

var apikeySetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Stores the RapidAPI key in the OS keyring.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := keyring.Set(keyringService, keyringUser, args[0])
		if err != nil {
			return fmt.Errorf("store key: %w", err)
		}
		fmt.Println("RapidAPI key stored.")
		return nil
	},
}

var apikeyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the currently configured RapidAPI key.",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := rapidApiKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	},
}
