package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbegin/nashville-go/api"
)

var flagAddr string

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the player over HTTP for browser editors",
	RunE: func(cmd *cobra.Command, args []string) error {
		player, err := configuredPlayer()
		if err != nil {
			return err
		}
		defer player.Close()

		handler := api.NewHandler(player, 250*time.Millisecond)
		fmt.Printf("listening on %s\n", flagAddr)
		return http.ListenAndServe(flagAddr, handler)
	},
}
