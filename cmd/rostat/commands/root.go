package commands

import (
	"context"
	"fmt"
	"os"

	"rostat-backend/lib/configutil"
	"rostat-backend/lib/scrapers/rokort"
	"rostat-backend/lib/scrapers/rowlog"
	"rostat-backend/lib/serviceutil"
	"rostat-backend/services/logbook"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type RowlogConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	ClubID   string `json:"club_id"`
}

type RokortConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	SiteID   string `json:"site_id"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type EventsConfig struct {
	Database string `json:"database"`
	// cron schedule for the background sync, e.g. "@hourly"
	Schedule string `json:"schedule"`
}

type Config struct {
	Rowlog  RowlogConfig   `json:"rowlog"`
	Rokort  RokortConfig   `json:"rokort"`
	Logbook logbook.Config `json:"logbook"`
	Server  ServerConfig   `json:"server"`
	Events  EventsConfig   `json:"events"`
}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "rostat",
	Short: "rostat browses rowing club statistics out of the cached logbook.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "rostat.json5", "path to the config file")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() Config {
	config, err := configutil.ReadConfig[Config](configFile)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return config
}

func newLogbook(config Config) *logbook.Service {
	client := rowlog.NewClient(rowlog.ClientOptions{
		BaseUrl:  config.Rowlog.BaseUrl,
		Username: config.Rowlog.Username,
		Password: config.Rowlog.Password,
		ClubID:   config.Rowlog.ClubID,
	})
	return logbook.NewService(client, config.Logbook)
}

func newRokort(ctx context.Context, config Config) (*rokort.Client, error) {
	return rokort.NewClient(ctx, rokort.ClientOptions{
		BaseUrl:  config.Rokort.BaseUrl,
		Username: config.Rokort.Username,
		Password: config.Rokort.Password,
		SiteID:   config.Rokort.SiteID,
	})
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
