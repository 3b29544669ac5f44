package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"rostat-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var clearCacheYes bool

func init() {
	clearCacheCmd.Flags().BoolVarP(&clearCacheYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(clearCacheCmd)
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Deletes the durable trip cache. The next query refetches every day from upstream.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newLogbook(readConfig())

		if !clearCacheYes {
			fmt.Print("delete the durable trip cache? this cannot be undone [y/N]: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				serviceutil.Fatal("failed to read confirmation", err)
			}
			if strings.TrimSpace(strings.ToLower(line)) != "y" {
				fmt.Println("aborted")
				return
			}
		}

		err := service.ClearDurableCache()
		if err != nil {
			serviceutil.Fatal("failed to clear cache", err)
		}
		fmt.Println("cache cleared")
	},
}
