package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"SiteBook/BillBook"
	"SiteBook/Config"
	"SiteBook/Controllers"
	"SiteBook/FiberConfig"
	"SiteBook/Models"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitebook",
		Short: "Construction business manager with a bill book ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(Config.Load())
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(Config.Load())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := Config.Load()
			if err := Models.Connect(cfg.DBDriver, cfg.DBDSN); err != nil {
				return err
			}
			log.Println("Migrations applied")
			return nil
		},
	})

	cmd.AddCommand(createAdminCmd())
	cmd.AddCommand(verifyLedgersCmd())
	return cmd
}

func createAdminCmd() *cobra.Command {
	var name, mobile, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user with admin permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mobile == "" || password == "" {
				return errors.New("--mobile and --password are required")
			}
			cfg := Config.Load()
			if err := Models.Connect(cfg.DBDriver, cfg.DBDSN); err != nil {
				return err
			}

			user, err := Controllers.CreateUser(Models.DB, name, mobile, password, Models.PermissionAdmin)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			log.Printf("Created admin %d (%s)\n", user.ID, user.Mobile)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Admin", "Display name")
	cmd.Flags().StringVar(&mobile, "mobile", "", "Mobile number used to log in")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func verifyLedgersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-ledgers",
		Short: "Recompute every ledger balance from its entries and report drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := Config.Load()
			if err := Models.Connect(cfg.DBDriver, cfg.DBDSN); err != nil {
				return err
			}

			drifts, err := BillBook.New(Models.DB).VerifyBalances(context.Background())
			if err != nil {
				return err
			}
			for _, d := range drifts {
				fmt.Fprintf(cmd.OutOrStdout(), "ledger %d %q: stored %s, entries sum to %s\n",
					d.LedgerID, d.Name, d.Stored.StringFixed(2), d.Computed.StringFixed(2))
			}
			if len(drifts) > 0 {
				return fmt.Errorf("%d ledger(s) out of balance", len(drifts))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All ledger balances match their entries")
			return nil
		},
	}
}

func serve(cfg Config.Config) error {
	setupLogging(cfg.LogDir)

	if err := Models.Connect(cfg.DBDriver, cfg.DBDSN); err != nil {
		return err
	}

	var publisher BillBook.Publisher = BillBook.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := BillBook.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("Publishing bill book events to %s\n", cfg.KafkaTopic)
	}

	return FiberConfig.FiberConfig(cfg, publisher)
}

func setupLogging(logDir string) {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	// Set up main application log file
	logFile, err := os.OpenFile(filepath.Join(logDir, "application.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)

	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	log.SetFlags(log.Ldate | log.Ltime)
}
